package textutil_test

import (
	"math"
	"testing"

	"influencer/internal/textutil"
)

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"Café à la crème":            "Cafe a la creme",
		"Straße #1: Ñandú!":          "Strasse 1 Nandu",
		"  spaced   out\ttitle ":     "spaced out title",
		"keep_under-score":           "keep_under-score",
		"日本語":                        "",
		"Why? Because... (it works)": "Why Because it works",
	}
	for in, want := range cases {
		if got := textutil.SanitizeTitle(in); got != want {
			t.Fatalf("SanitizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayTitleKeepsAcronyms(t *testing.T) {
	if got := textutil.DisplayTitle("the rise of NASA"); got != "The Rise Of NASA" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}

func TestDiffWords(t *testing.T) {
	script := textutil.WordCounts("The cat sat. The cat's hat!")
	subs := textutil.WordCounts("the cat sad the cat's hat")
	missing, extra := textutil.DiffWords(script, subs)
	if len(missing) != 1 || missing[0].Word != "sat" || missing[0].Count != 1 {
		t.Fatalf("missing = %+v", missing)
	}
	if len(extra) != 1 || extra[0].Word != "sad" {
		t.Fatalf("extra = %+v", extra)
	}
}

func TestSimilarity(t *testing.T) {
	a := textutil.WordCounts("alpha beta gamma")
	if got := textutil.Similarity(a, a); math.Abs(got-1) > 1e-9 {
		t.Fatalf("self similarity = %v", got)
	}
	if got := textutil.Similarity(a, textutil.WordCounts("delta")); got != 0 {
		t.Fatalf("disjoint similarity = %v", got)
	}
	if got := textutil.Similarity(a, nil); got != 0 {
		t.Fatalf("empty similarity = %v", got)
	}
}

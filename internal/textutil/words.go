package textutil

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Words lowercases text and splits it into words. Apostrophes stay inside
// words so contractions compare as one token.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// WordCounts returns the frequency of every word in text.
func WordCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range Words(text) {
		counts[w]++
	}
	return counts
}

// WordDelta is a word present on one side only, with its frequency there.
type WordDelta struct {
	Word  string
	Count int
}

// DiffWords reports words of want missing from got, and words of got absent
// from want. Both lists are sorted by word.
func DiffWords(want, got map[string]int) (missing, extra []WordDelta) {
	for w, n := range want {
		if _, ok := got[w]; !ok {
			missing = append(missing, WordDelta{Word: w, Count: n})
		}
	}
	for w, n := range got {
		if _, ok := want[w]; !ok {
			extra = append(extra, WordDelta{Word: w, Count: n})
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Word < missing[j].Word })
	sort.Slice(extra, func(i, j int) bool { return extra[i].Word < extra[j].Word })
	return missing, extra
}

// Similarity is the cosine similarity of two word-frequency vectors, 0 when
// either is empty.
func Similarity(a, b map[string]int) float64 {
	var dot, na, nb float64
	for w, n := range a {
		na += float64(n * n)
		if m, ok := b[w]; ok {
			dot += float64(n * m)
		}
	}
	for _, m := range b {
		nb += float64(m * m)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

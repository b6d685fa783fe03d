package workitem_test

import (
	"errors"
	"testing"
	"time"

	"influencer/internal/services"
	"influencer/internal/workitem"
)

func TestDirNameEncode(t *testing.T) {
	item := workitem.Item{
		Series:  "BRK",
		Seq:     12,
		Stage:   workitem.StageRendered,
		Created: time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local),
		Title:   "Les Misérables: résumé!",
	}
	got := workitem.DirName{}.Encode(item)
	want := "BRK-12_State4_2024-03-09_Les Miserables resume"
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}

	item.Title = ""
	item.Stage = workitem.StageDenied
	if got := (workitem.DirName{}).Encode(item); got != "BRK-12_StateX_2024-03-09_NoTitle" {
		t.Fatalf("Encode placeholder = %q", got)
	}
}

func TestDirNameDecode(t *testing.T) {
	item, err := workitem.DirName{}.Decode("BRK-7_State6_2024-01-31_Why cats_purr - explained")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if item.Series != "BRK" || item.Seq != 7 || item.Stage != workitem.StageApproved {
		t.Fatalf("unexpected identity %+v", item)
	}
	if item.Title != "Why cats_purr - explained" || item.DisplayDate() != "2024-01-31" {
		t.Fatalf("unexpected record %+v", item)
	}

	placeholder, err := workitem.DirName{}.Decode("BRK-8_State0_2024-02-01_NoTitle")
	if err != nil {
		t.Fatalf("Decode placeholder: %v", err)
	}
	if placeholder.Title != "" || placeholder.DisplayTitle() != workitem.Placeholder {
		t.Fatalf("placeholder title = %q", placeholder.Title)
	}
}

func TestDirNameDecodeArchiveFolder(t *testing.T) {
	item, err := workitem.DirName{}.Decode("zID-0_State9_0000-00-00_uploaded videos not english")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if item.Stage != workitem.StageTranslated || !item.Created.IsZero() {
		t.Fatalf("unexpected archive item %+v", item)
	}
}

func TestDirNameDecodeRejectsMalformed(t *testing.T) {
	for _, name := range []string{
		"",
		"notes",
		"BRK_State1_2024-01-01_Title",
		"BRK-x_State1_2024-01-01_Title",
		"BRK-1_StateY_2024-01-01_Title",
		"BRK-1_State1_2024-13-01_Title",
		"BRK-1_State1_2024-01-01_",
		"BRK-1_State1_2024-01-01_Bad?Title",
		"-1_State1_2024-01-01_Title",
	} {
		_, err := workitem.DirName{}.Decode(name)
		if !errors.Is(err, services.ErrMalformedIdentity) {
			t.Fatalf("Decode(%q) err = %v, want malformed identity", name, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	codec := workitem.DirName{}
	for _, stage := range []workitem.Stage{workitem.StageEmpty, workitem.StagePostedAll, workitem.StageDenied} {
		in := workitem.Item{Series: "ANA", Seq: 103, Stage: stage, Created: time.Date(2023, 12, 1, 0, 0, 0, 0, time.Local), Title: "Plain title"}
		out, err := codec.Decode(codec.Encode(in))
		if err != nil {
			t.Fatalf("round trip %s: %v", stage, err)
		}
		if out.Series != in.Series || out.Seq != in.Seq || out.Stage != in.Stage || out.Title != in.Title || !out.Created.Equal(in.Created) {
			t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
		}
	}
}

func TestParseStage(t *testing.T) {
	cases := map[string]workitem.Stage{"0": workitem.StageEmpty, "State5": workitem.StageThumbnailed, "X": workitem.StageDenied, "StateX": workitem.StageDenied, "9": workitem.StageTranslated}
	for in, want := range cases {
		got, err := workitem.ParseStage(in)
		if err != nil || got != want {
			t.Fatalf("ParseStage(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := workitem.ParseStage("10"); err == nil {
		t.Fatal("expected error for stage 10")
	}
}

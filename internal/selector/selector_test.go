package selector_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"influencer/internal/selector"
	"influencer/internal/services"
	"influencer/internal/workitem"
)

type fakeLister []workitem.Item

func (f fakeLister) List(context.Context) ([]workitem.Item, error) { return f, nil }

type scriptedChooser struct {
	pick    int
	options []string
}

func (c *scriptedChooser) Choose(_ string, options []string) (int, error) {
	c.options = options
	return c.pick, nil
}

func TestSelectOrdersAscendingAndFilters(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	stages := workitem.Stages(workitem.StageScripted, workitem.StageRendered)
	for trial := range 50 {
		var items fakeLister
		for seq := 1; seq <= 30; seq++ {
			items = append(items, workitem.Item{Series: "BRK", Seq: seq, Stage: workitem.Stage(rng.IntN(11))})
		}
		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

		got, err := selector.Select(context.Background(), items, stages)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		want := 0
		for _, item := range items {
			if stages.Has(item.Stage) {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("trial %d: got %d items, want %d", trial, len(got), want)
		}
		for i, item := range got {
			if !stages.Has(item.Stage) {
				t.Fatalf("trial %d: item %s in stage %s should be excluded", trial, item.Key(), item.Stage)
			}
			if i > 0 && got[i-1].Seq >= item.Seq {
				t.Fatalf("trial %d: not strictly ascending at %d", trial, i)
			}
		}
	}
}

func TestSelectEmptyStageSet(t *testing.T) {
	items := fakeLister{{Series: "BRK", Seq: 1, Stage: workitem.StageEmpty}}
	got, err := selector.Select(context.Background(), items, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("empty stage set should match nothing, got %d", len(got))
	}
}

func TestFirstNotFound(t *testing.T) {
	_, err := selector.First(context.Background(), fakeLister{}, workitem.Stages(workitem.StageApproved))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFormatChoice(t *testing.T) {
	item := workitem.Item{
		Series:  "BRK",
		Seq:     12,
		Stage:   workitem.StageThumbnailed,
		Created: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Title:   "Morning routine",
	}
	want := "id: 12 : State5 | Title: Morning routine | Date: 2026-02-03"
	if got := selector.FormatChoice(item); got != want {
		t.Fatalf("FormatChoice = %q, want %q", got, want)
	}
	item.Title = ""
	item.Created = time.Time{}
	want = "id: 12 : State5 | Title: NoTitle | Date: 0000-00-00"
	if got := selector.FormatChoice(item); got != want {
		t.Fatalf("FormatChoice = %q, want %q", got, want)
	}
}

func TestSelectOne(t *testing.T) {
	items := fakeLister{
		{Series: "BRK", Seq: 9, Stage: workitem.StageNarrated},
		{Series: "BRK", Seq: 3, Stage: workitem.StageScripted},
		{Series: "BRK", Seq: 5, Stage: workitem.StageApproved},
	}
	chooser := &scriptedChooser{pick: 1}
	got, err := selector.SelectOne(context.Background(), items, workitem.Stages(workitem.StageScripted, workitem.StageNarrated), chooser)
	if err != nil {
		t.Fatalf("SelectOne: %v", err)
	}
	if got.Seq != 9 {
		t.Fatalf("picked %d, want 9", got.Seq)
	}
	if len(chooser.options) != 2 || chooser.options[0] != "id: 3 : State1 | Title: NoTitle | Date: 0000-00-00" {
		t.Fatalf("unexpected options %q", chooser.options)
	}
}

func TestSelectOneOutOfRange(t *testing.T) {
	items := fakeLister{{Series: "BRK", Seq: 1, Stage: workitem.StageScripted}}
	_, err := selector.SelectOne(context.Background(), items, workitem.Stages(workitem.StageScripted), &scriptedChooser{pick: 4})
	if err == nil {
		t.Fatal("expected out of range error")
	}
}

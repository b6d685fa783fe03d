package journal_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"influencer/internal/journal"
	"influencer/internal/testsupport"
)

func TestRecordAndRecent(t *testing.T) {
	j := testsupport.MustOpenJournal(t)
	ctx := context.Background()

	events := []journal.Event{
		{Channel: "brooke", Item: "BRK-1", Kind: journal.KindTransition, FromStage: "State0", ToStage: "State1"},
		{Channel: "brooke", Item: "BRK-1", Kind: journal.KindUpload, Detail: "video_id=abc"},
		{Channel: "other", Item: "OTH-3", Kind: journal.KindFailure, Detail: "boom"},
	}
	for _, ev := range events {
		if err := j.Record(ctx, ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(ctx, journal.Query{Channel: "brooke"})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Kind != journal.KindUpload || got[1].Kind != journal.KindTransition {
		t.Fatalf("expected newest first, got %s then %s", got[0].Kind, got[1].Kind)
	}
	if got[1].ToStage != "State1" || got[1].Time.IsZero() {
		t.Fatalf("unexpected event %+v", got[1])
	}

	limited, err := j.Recent(ctx, journal.Query{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Channel != "other" {
		t.Fatalf("unexpected limited result %+v", limited)
	}

	counts, err := j.Counts(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if counts[journal.KindFailure] != 1 || counts[journal.KindUpload] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestRecordRequiresKind(t *testing.T) {
	j := testsupport.MustOpenJournal(t)
	if err := j.Record(context.Background(), journal.Event{Channel: "x"}); err == nil {
		t.Fatal("expected error for missing kind")
	}
}

func TestPrune(t *testing.T) {
	j := testsupport.MustOpenJournal(t)
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := j.Record(ctx, journal.Event{Kind: journal.KindAlert, Time: old}); err != nil {
		t.Fatal(err)
	}
	if err := j.Record(ctx, journal.Event{Kind: journal.KindAlert}); err != nil {
		t.Fatal(err)
	}
	removed, err := j.Prune(ctx, old.Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Record(context.Background(), journal.Event{Kind: journal.KindCreated, Item: "BRK-1"}); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	j, err = journal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	got, err := j.Recent(context.Background(), journal.Query{Item: "BRK-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events after reopen", len(got))
	}
}

func TestNopRecorder(t *testing.T) {
	var r journal.Recorder = journal.Nop{}
	if err := r.Record(context.Background(), journal.Event{}); err != nil {
		t.Fatalf("Nop.Record = %v", err)
	}
}

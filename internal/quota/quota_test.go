package quota_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"influencer/internal/quota"
	"influencer/internal/testsupport"
)

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := quota.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}
	return loc
}

func TestGateClosesForTheLocalDay(t *testing.T) {
	loc := losAngeles(t)
	g := quota.New(t.TempDir(), loc)
	// 2026-03-02 06:00 UTC is still March 1st in Los Angeles.
	early := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	if g.Day(early) != "2026-03-01" {
		t.Fatalf("Day = %s", g.Day(early))
	}

	closed, err := g.Closed(early)
	if err != nil || closed {
		t.Fatalf("fresh gate Closed = %t, %v", closed, err)
	}
	if err := g.Close(early, "quotaExceeded"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(testsupport.ReadText(t, g.MarkerPath(early)), "quotaExceeded") {
		t.Fatal("marker should carry the reason")
	}

	sameDay := early.Add(12 * time.Hour)
	if closed, _ := g.Closed(sameDay); !closed {
		t.Fatal("gate should stay closed for the rest of the local day")
	}
	nextDay := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if closed, _ := g.Closed(nextDay); closed {
		t.Fatal("gate should reopen after local midnight")
	}
}

func TestReopen(t *testing.T) {
	g := quota.New(t.TempDir(), time.UTC)
	now := testsupport.FixedNow
	if err := g.Close(now, "limit"); err != nil {
		t.Fatal(err)
	}
	if err := g.Reopen(now); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if closed, _ := g.Closed(now); closed {
		t.Fatal("gate still closed")
	}
	if err := g.Reopen(now); err != nil {
		t.Fatalf("Reopen of open gate: %v", err)
	}
}

func TestPrune(t *testing.T) {
	channel := t.TempDir()
	g := quota.New(channel, time.UTC)
	dir := filepath.Join(channel, quota.LogDir)
	testsupport.Markers(t, dir, "2026-01-01.txt", "2026-02-28.txt", "2026-03-02.txt", "notes.md")
	removed, err := g.Prune(testsupport.FixedNow, 7)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}

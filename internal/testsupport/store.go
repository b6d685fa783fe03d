package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"influencer/internal/journal"
	"influencer/internal/store"
	"influencer/internal/workitem"
)

// FixedNow is the clock used by fixtures: 2026-03-02 10:00 UTC, a Monday.
var FixedNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

// Clock returns a func reporting FixedNow.
func Clock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// NewDirStore builds a DirStore over root with no settle delay and the fixed
// clock.
func NewDirStore(t testing.TB, root string) *store.DirStore {
	t.Helper()
	return store.NewDirStore(root, store.Options{
		Codec:         workitem.DirName{},
		ArchiveFolder: "zID-0_State9_0000-00-00_uploaded videos not english",
		Now:           Clock(),
	})
}

// MustOpenJournal opens a journal in a temp directory and registers cleanup.
func MustOpenJournal(t testing.TB) *journal.Store {
	t.Helper()

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}

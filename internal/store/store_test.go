package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"influencer/internal/services"
	"influencer/internal/store"
	"influencer/internal/testsupport"
	"influencer/internal/workitem"
)

const archiveName = "zID-0_State9_0000-00-00_uploaded videos not english"

func TestCreateAssignsConsecutiveSequences(t *testing.T) {
	root := testsupport.MkdirItems(t, t.TempDir(),
		"BRK-3_State6_2026-01-01_Old one",
		"BRK-7_State2_2026-01-02_NoTitle",
		"OTH-40_State1_2026-01-02_NoTitle",
	)
	s := testsupport.NewDirStore(t, root)
	ctx := context.Background()

	var got []int
	for range 3 {
		item, err := s.Create(ctx, "BRK")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if item.Stage != workitem.StageEmpty || item.Title != "" {
			t.Fatalf("unexpected new item %+v", item)
		}
		got = append(got, item.Seq)
	}
	if want := []int{8, 9, 10}; !reflect.DeepEqual(got, want) {
		t.Fatalf("sequences = %v, want %v", got, want)
	}
	if _, err := os.Stat(filepath.Join(root, "BRK-8_State0_2026-03-02_NoTitle")); err != nil {
		t.Fatalf("expected folder for BRK-8: %v", err)
	}
}

func TestCreateCountsArchivedSequences(t *testing.T) {
	root := t.TempDir()
	testsupport.MkdirItems(t, root, "BRK-2_State6_2026-01-01_Kept")
	testsupport.MkdirItems(t, filepath.Join(root, archiveName), "BRK-5_State8_2026-01-01_Posted")
	s := testsupport.NewDirStore(t, root)

	item, err := s.Create(context.Background(), "BRK")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Seq != 6 {
		t.Fatalf("Seq = %d, want 6", item.Seq)
	}
}

func TestCreateInEmptyRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Outputs")
	s := testsupport.NewDirStore(t, root)
	item, err := s.Create(context.Background(), "BRK")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Seq != 1 {
		t.Fatalf("Seq = %d, want 1", item.Seq)
	}
}

func TestCreateUnwritableRoot(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	testsupport.WriteText(t, blocker, "x")
	s := testsupport.NewDirStore(t, filepath.Join(blocker, "Outputs"))
	_, err := s.Create(context.Background(), "BRK")
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestListSkipsMalformedAndFiles(t *testing.T) {
	root := testsupport.MkdirItems(t, t.TempDir(),
		"BRK-2_State1_2026-01-01_NoTitle",
		"BRK-1_StateX_2026-01-01_Needs work",
		"random folder",
		"BRK-3_State1_20260101_NoTitle",
		archiveName,
	)
	testsupport.WriteText(t, filepath.Join(root, "BRK-4_State1_2026-01-01_NoTitle"), "not a dir")
	s := testsupport.NewDirStore(t, root)

	items, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Seq != 1 || items[0].Stage != workitem.StageDenied || items[0].Title != "Needs work" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Seq != 2 || items[1].Dir != filepath.Join(root, "BRK-2_State1_2026-01-01_NoTitle") {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}

func TestListMissingRoot(t *testing.T) {
	s := testsupport.NewDirStore(t, filepath.Join(t.TempDir(), "missing"))
	if _, err := s.List(context.Background()); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestSetStageAndTitleRename(t *testing.T) {
	root := testsupport.MkdirItems(t, t.TempDir(), "BRK-4_State3_2026-02-01_NoTitle")
	testsupport.Markers(t, filepath.Join(root, "BRK-4_State3_2026-02-01_NoTitle"), "text.txt")
	s := testsupport.NewDirStore(t, root)
	ctx := context.Background()

	item, err := s.Get(ctx, "BRK", 4)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	item, err = s.SetStage(ctx, item, workitem.StageRendered)
	if err != nil {
		t.Fatalf("SetStage: %v", err)
	}
	item, err = s.SetTitle(ctx, item, "Crème brûlée: 5 secrets!")
	if err != nil {
		t.Fatalf("SetTitle: %v", err)
	}

	want := "BRK-4_State4_2026-02-01_Creme brulee 5 secrets"
	if got := testsupport.DirNames(t, root); !reflect.DeepEqual(got, []string{want}) {
		t.Fatalf("dirs = %v, want [%s]", got, want)
	}
	if item.Dir != filepath.Join(root, want) {
		t.Fatalf("Dir = %s", item.Dir)
	}
	if _, err := os.Stat(filepath.Join(item.Dir, "text.txt")); err != nil {
		t.Fatalf("artifact lost in rename: %v", err)
	}
}

func TestRenameWaitsForSettle(t *testing.T) {
	root := testsupport.MkdirItems(t, t.TempDir(), "BRK-1_State0_2026-02-01_NoTitle")
	var waited []time.Duration
	s := store.NewDirStore(root, store.Options{
		Settle: store.DefaultSettle,
		Sleep: func(_ context.Context, d time.Duration) error {
			waited = append(waited, d)
			return nil
		},
	})
	ctx := context.Background()
	item, err := s.Get(ctx, "BRK", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetStage(ctx, item, workitem.StageScripted); err != nil {
		t.Fatalf("SetStage: %v", err)
	}
	if _, err := s.SetStage(ctx, item, workitem.StageEmpty); err == nil {
		t.Fatal("renaming a stale path should fail")
	}
	if !reflect.DeepEqual(waited, []time.Duration{store.DefaultSettle}) {
		t.Fatalf("waited = %v", waited)
	}
}

func TestDeleteIfStage(t *testing.T) {
	root := testsupport.MkdirItems(t, t.TempDir(),
		"BRK-1_State0_2026-02-01_NoTitle",
		"BRK-2_State1_2026-02-01_NoTitle",
		"BRK-3_State0_2026-02-01_NoTitle",
		"BRK-4_State5_2026-02-01_Keep",
	)
	s := testsupport.NewDirStore(t, root)

	removed, err := s.DeleteIfStage(context.Background(), workitem.StageEmpty)
	if err != nil {
		t.Fatalf("DeleteIfStage: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	want := []string{"BRK-2_State1_2026-02-01_NoTitle", "BRK-4_State5_2026-02-01_Keep"}
	if got := testsupport.DirNames(t, root); !reflect.DeepEqual(got, want) {
		t.Fatalf("dirs = %v, want %v", got, want)
	}
}

func TestDeleteIfStageMissingRootIsNoop(t *testing.T) {
	s := testsupport.NewDirStore(t, filepath.Join(t.TempDir(), "missing"))
	removed, err := s.DeleteIfStage(context.Background(), workitem.StageEmpty)
	if err != nil || removed != 0 {
		t.Fatalf("DeleteIfStage = %d, %v; want 0, nil", removed, err)
	}
}

func TestArchivePosted(t *testing.T) {
	root := testsupport.MkdirItems(t, t.TempDir(),
		"BRK-1_State7_2026-01-01_Once",
		"BRK-2_State8_2026-01-01_Twice",
		"BRK-3_State6_2026-01-01_Waiting",
	)
	s := testsupport.NewDirStore(t, root)

	moved, err := s.ArchivePosted(context.Background())
	if err != nil {
		t.Fatalf("ArchivePosted: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}
	want := []string{"BRK-3_State6_2026-01-01_Waiting", archiveName}
	if got := testsupport.DirNames(t, root); !reflect.DeepEqual(got, want) {
		t.Fatalf("dirs = %v, want %v", got, want)
	}
	archived := testsupport.DirNames(t, filepath.Join(root, archiveName))
	if len(archived) != 2 {
		t.Fatalf("archived = %v", archived)
	}
	items, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("archive folder must not be listed: %+v", items)
	}
}

func TestLockChannelsIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	release, err := store.LockChannels(cfg, []string{"cats", "dogs"})
	if err != nil {
		t.Fatalf("LockChannels: %v", err)
	}
	if _, err := store.LockChannels(cfg, []string{"birds", "dogs"}); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("second lock error = %v, want ErrLocked", err)
	}
	release()
	again, err := store.LockChannels(cfg, []string{"birds", "dogs"})
	if err != nil {
		t.Fatalf("LockChannels after release: %v", err)
	}
	again()
}

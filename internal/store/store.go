// Package store persists work items. Repository is the record-store contract;
// DirStore implements it on a directory whose child folder names carry each
// item's record through a workitem.Codec.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"influencer/internal/fileutil"
	"influencer/internal/logging"
	"influencer/internal/retry"
	"influencer/internal/services"
	"influencer/internal/workitem"
)

// DefaultSettle is the pause after each rename before the listing is trusted.
const DefaultSettle = 2 * time.Second

// Repository is a keyed record store of work items. Keys are (series, seq);
// records are stage, creation date and title.
type Repository interface {
	Create(ctx context.Context, series string) (workitem.Item, error)
	List(ctx context.Context) ([]workitem.Item, error)
	Get(ctx context.Context, series string, seq int) (workitem.Item, error)
	SetStage(ctx context.Context, item workitem.Item, stage workitem.Stage) (workitem.Item, error)
	SetTitle(ctx context.Context, item workitem.Item, title string) (workitem.Item, error)
	DeleteIfStage(ctx context.Context, stage workitem.Stage) (int, error)
	ArchivePosted(ctx context.Context) (int, error)
}

// Options configures a DirStore.
type Options struct {
	Codec         workitem.Codec
	ArchiveFolder string
	Settle        time.Duration
	Sleep         retry.Sleeper
	Now           func() time.Time
	Logger        *slog.Logger
}

// DirStore keeps one folder per item under Root.
type DirStore struct {
	root    string
	codec   workitem.Codec
	archive string
	settle  time.Duration
	sleep   retry.Sleeper
	now     func() time.Time
	logger  *slog.Logger
}

var _ Repository = (*DirStore)(nil)

// NewDirStore builds a DirStore over root.
func NewDirStore(root string, opts Options) *DirStore {
	s := &DirStore{
		root:    root,
		codec:   opts.Codec,
		archive: opts.ArchiveFolder,
		settle:  opts.Settle,
		sleep:   opts.Sleep,
		now:     opts.Now,
		logger:  logging.NewComponentLogger(opts.Logger, "store"),
	}
	if s.codec == nil {
		s.codec = workitem.DirName{}
	}
	if s.sleep == nil {
		s.sleep = retry.Sleep
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Root returns the storage directory.
func (s *DirStore) Root() string { return s.root }

// ArchiveDir returns the folder that receives fully posted items, or "" when
// archiving is disabled.
func (s *DirStore) ArchiveDir() string {
	if s.archive == "" {
		return ""
	}
	return filepath.Join(s.root, s.archive)
}

// Create allocates the next sequence number in series and creates its folder
// in stage 0 with today's date and the placeholder title.
func (s *DirStore) Create(ctx context.Context, series string) (workitem.Item, error) {
	if err := ctx.Err(); err != nil {
		return workitem.Item{}, err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return workitem.Item{}, services.Wrap(services.ErrStorage, "store", "create root", s.root, err)
	}
	next, err := s.nextSequence(series)
	if err != nil {
		return workitem.Item{}, err
	}
	now := s.now()
	item := workitem.Item{
		Series:  series,
		Seq:     next,
		Stage:   workitem.StageEmpty,
		Created: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	item.Dir = filepath.Join(s.root, s.codec.Encode(item))
	if err := os.Mkdir(item.Dir, 0o755); err != nil {
		return workitem.Item{}, services.Wrap(services.ErrStorage, "store", "create item", item.Dir, err)
	}
	s.logger.Info("work item created",
		logging.String(logging.FieldItem, item.Key()),
		logging.String("dir", item.Dir),
	)
	return item, nil
}

// nextSequence is max(existing)+1 over the root and the archive folder, so an
// archived number is never handed out again.
func (s *DirStore) nextSequence(series string) (int, error) {
	highest := 0
	dirs := []string{s.root}
	if archive := s.ArchiveDir(); archive != "" {
		dirs = append(dirs, archive)
	}
	for _, dir := range dirs {
		items, err := s.scan(dir)
		if err != nil {
			if dir != s.root && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, services.Wrap(services.ErrStorage, "store", "scan", dir, err)
		}
		for _, item := range items {
			if item.Series == series && item.Seq > highest {
				highest = item.Seq
			}
		}
	}
	return highest + 1, nil
}

// List returns every well-formed item in the root sorted by series then
// sequence. Malformed names and plain files are skipped.
func (s *DirStore) List(ctx context.Context) ([]workitem.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := s.scan(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "store", "list", s.root, err)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Series != items[j].Series {
			return items[i].Series < items[j].Series
		}
		return items[i].Seq < items[j].Seq
	})
	return items, nil
}

func (s *DirStore) scan(dir string) ([]workitem.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	items := make([]workitem.Item, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == s.archive {
			continue
		}
		item, err := s.codec.Decode(entry.Name())
		if err != nil {
			s.logger.Debug("skipping malformed item folder",
				logging.String("name", entry.Name()),
				logging.Error(err),
			)
			continue
		}
		item.Dir = filepath.Join(dir, entry.Name())
		items = append(items, item)
	}
	return items, nil
}

// Get finds the current record for (series, seq).
func (s *DirStore) Get(ctx context.Context, series string, seq int) (workitem.Item, error) {
	items, err := s.List(ctx)
	if err != nil {
		return workitem.Item{}, err
	}
	for _, item := range items {
		if item.Series == series && item.Seq == seq {
			return item, nil
		}
	}
	return workitem.Item{}, services.Wrap(services.ErrNotFound, "store", "get", fmt.Sprintf("%s-%d", series, seq), nil)
}

// SetStage persists a new stage by renaming the item's folder.
func (s *DirStore) SetStage(ctx context.Context, item workitem.Item, stage workitem.Stage) (workitem.Item, error) {
	updated := item
	updated.Stage = stage
	return s.rename(ctx, item, updated)
}

// SetTitle persists a new title by renaming the item's folder.
func (s *DirStore) SetTitle(ctx context.Context, item workitem.Item, title string) (workitem.Item, error) {
	updated := item
	updated.Title = title
	return s.rename(ctx, item, updated)
}

func (s *DirStore) rename(ctx context.Context, from, to workitem.Item) (workitem.Item, error) {
	if from.Dir == "" {
		return workitem.Item{}, services.Wrap(services.ErrValidation, "store", "rename", from.Key()+" has no directory", nil)
	}
	parent := filepath.Dir(from.Dir)
	to.Dir = filepath.Join(parent, s.codec.Encode(to))
	if to.Dir == from.Dir {
		return to, nil
	}
	if err := os.Rename(from.Dir, to.Dir); err != nil {
		return workitem.Item{}, services.Wrap(services.ErrStorage, "store", "rename", from.Dir, err)
	}
	s.logger.Info("work item renamed",
		logging.String(logging.FieldItem, to.Key()),
		logging.String("from", filepath.Base(from.Dir)),
		logging.String("to", filepath.Base(to.Dir)),
	)
	if err := s.sleep(ctx, s.settle); err != nil {
		return to, err
	}
	// Decode normalises the title exactly as a later List would.
	if decoded, err := s.codec.Decode(filepath.Base(to.Dir)); err == nil {
		decoded.Dir = to.Dir
		to = decoded
	}
	return to, nil
}

// DeleteIfStage removes every item folder whose encoded stage is stage. A
// missing root is logged and treated as empty.
func (s *DirStore) DeleteIfStage(ctx context.Context, stage workitem.Stage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	items, err := s.scan(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(s.logger, "storage root missing; nothing to sweep", "store_root_missing",
				logging.String("root", s.root),
				logging.String(logging.FieldStage, stage.String()),
				logging.String(logging.FieldErrorHint, "create the channel Outputs folder"),
				logging.String(logging.FieldImpact, "no items were deleted"),
			)
			return 0, nil
		}
		return 0, services.Wrap(services.ErrStorage, "store", "sweep", s.root, err)
	}
	removed := 0
	for _, item := range items {
		if item.Stage != stage {
			continue
		}
		if err := os.RemoveAll(item.Dir); err != nil {
			return removed, services.Wrap(services.ErrStorage, "store", "delete", item.Dir, err)
		}
		removed++
		s.logger.Info("work item deleted",
			logging.String(logging.FieldItem, item.Key()),
			logging.String(logging.FieldStage, stage.String()),
		)
	}
	return removed, nil
}

// ArchivePosted moves every State7 and State8 item into the archive folder.
func (s *DirStore) ArchivePosted(ctx context.Context) (int, error) {
	archive := s.ArchiveDir()
	if archive == "" {
		return 0, nil
	}
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, item := range items {
		if item.Stage != workitem.StagePostedOnce && item.Stage != workitem.StagePostedAll {
			continue
		}
		if moved == 0 {
			if err := os.MkdirAll(archive, 0o755); err != nil {
				return 0, services.Wrap(services.ErrStorage, "store", "create archive", archive, err)
			}
		}
		dst := filepath.Join(archive, filepath.Base(item.Dir))
		if err := fileutil.MoveDir(item.Dir, dst); err != nil {
			return moved, services.Wrap(services.ErrStorage, "store", "archive", item.Dir, err)
		}
		moved++
		s.logger.Info("work item archived",
			logging.String(logging.FieldItem, item.Key()),
			logging.String(logging.FieldStage, item.Stage.String()),
		)
	}
	return moved, nil
}

// Package lifecycle is the only writer of persisted stage. Advance re-infers
// an item's stage from its artifacts and renames it when the stage moved;
// SweepAbandoned reclaims items that died early in production.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"influencer/internal/journal"
	"influencer/internal/logging"
	"influencer/internal/services"
	"influencer/internal/stage"
	"influencer/internal/store"
	"influencer/internal/workitem"
)

// Manager advances items in one channel's repository.
type Manager struct {
	repo    store.Repository
	journal journal.Recorder
	channel string
	opts    stage.Options
	logger  *slog.Logger
}

// New builds a Manager. A nil recorder discards events.
func New(repo store.Repository, rec journal.Recorder, channel string, opts stage.Options, logger *slog.Logger) *Manager {
	if rec == nil {
		rec = journal.Nop{}
	}
	return &Manager{
		repo:    repo,
		journal: rec,
		channel: channel,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "lifecycle").With(logging.String(logging.FieldChannel, channel)),
	}
}

// Infer reports the stage the item's artifacts support without persisting it.
func (m *Manager) Infer(item workitem.Item) (workitem.Stage, error) {
	set, err := stage.Collect(item.Dir)
	if err != nil {
		return item.Stage, services.Wrap(services.ErrStorage, "lifecycle", "collect markers", item.Key(), err)
	}
	return stage.Infer(set, m.opts), nil
}

// Advance persists the inferred stage when it differs from the encoded one.
// Calling it again without new artifacts is a no-op.
func (m *Manager) Advance(ctx context.Context, item workitem.Item) (workitem.Item, error) {
	next, err := m.Infer(item)
	if err != nil {
		return item, err
	}
	if next == item.Stage {
		return item, nil
	}
	updated, err := m.repo.SetStage(ctx, item, next)
	if err != nil {
		return item, err
	}
	m.logger.Info("stage advanced",
		logging.String(logging.FieldItem, item.Key()),
		logging.String("from", item.Stage.String()),
		logging.String("to", next.String()),
	)
	m.record(ctx, journal.Event{
		Channel:   m.channel,
		Item:      item.Key(),
		Kind:      journal.KindTransition,
		FromStage: item.Stage.String(),
		ToStage:   next.String(),
	})
	return updated, nil
}

// SweepAbandoned deletes every State0 item and, after a production cycle,
// every State1 item.
func (m *Manager) SweepAbandoned(ctx context.Context, afterProduction bool) (int, error) {
	stages := []workitem.Stage{workitem.StageEmpty}
	if afterProduction {
		stages = append(stages, workitem.StageScripted)
	}
	total := 0
	for _, s := range stages {
		n, err := m.repo.DeleteIfStage(ctx, s)
		total += n
		if err != nil {
			return total, err
		}
		if n > 0 {
			m.record(ctx, journal.Event{
				Channel:   m.channel,
				Kind:      journal.KindSwept,
				FromStage: s.String(),
				Detail:    fmt.Sprintf("%d item(s)", n),
			})
		}
	}
	return total, nil
}

func (m *Manager) record(ctx context.Context, ev journal.Event) {
	if err := m.journal.Record(ctx, ev); err != nil {
		m.logger.Warn("journal write failed",
			logging.String(logging.FieldEventType, "journal_write_failed"),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.Error(err),
		)
	}
}

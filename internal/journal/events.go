package journal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a journal event.
type Kind string

const (
	KindCreated     Kind = "created"
	KindTransition  Kind = "transition"
	KindRenamed     Kind = "renamed"
	KindUpload      Kind = "upload"
	KindQuotaClosed Kind = "quota_closed"
	KindFailure     Kind = "failure"
	KindSwept       Kind = "swept"
	KindArchived    Kind = "archived"
	KindTopicPopped Kind = "topic_popped"
	KindAlert       Kind = "alert"
)

// Event is one journal row.
type Event struct {
	ID        int64
	Time      time.Time
	RunID     string
	Channel   string
	Item      string
	Kind      Kind
	FromStage string
	ToStage   string
	Detail    string
}

// Recorder accepts events. Orchestrators depend on this rather than Store.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

// Record appends an event. A zero Time is stamped with the current time.
func (s *Store) Record(ctx context.Context, event Event) error {
	if strings.TrimSpace(string(event.Kind)) == "" {
		return fmt.Errorf("journal event kind is required")
	}
	if event.Time.IsZero() {
		event.Time = s.now()
	}
	return s.write(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO events (recorded_at, run_id, channel, item, kind, from_stage, to_stage, detail)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			event.Time.UTC().Format(time.RFC3339Nano), event.RunID, event.Channel, event.Item,
			string(event.Kind), event.FromStage, event.ToStage, event.Detail,
		)
		return err
	})
}

// Query filters Recent. Zero fields match everything.
type Query struct {
	Channel string
	Item    string
	Kind    Kind
	Since   time.Time
	Limit   int
}

// Recent returns events newest first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if q.Channel != "" {
		where = append(where, "channel = ?")
		args = append(args, q.Channel)
	}
	if q.Item != "" {
		where = append(where, "item = ?")
		args = append(args, q.Item)
	}
	if q.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if !q.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, q.Since.UTC().Format(time.RFC3339Nano))
	}
	query := `SELECT id, recorded_at, run_id, channel, item, kind, from_stage, to_stage, detail FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev       Event
			recorded string
			kind     string
		)
		if err := rows.Scan(&ev.ID, &recorded, &ev.RunID, &ev.Channel, &ev.Item, &kind, &ev.FromStage, &ev.ToStage, &ev.Detail); err != nil {
			return nil, err
		}
		ev.Kind = Kind(kind)
		if ts, err := time.Parse(time.RFC3339Nano, recorded); err == nil {
			ev.Time = ts
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Counts returns the number of events per kind, optionally for one channel.
func (s *Store) Counts(ctx context.Context, channel string) (map[Kind]int, error) {
	query := `SELECT kind, COUNT(1) FROM events`
	var args []any
	if channel != "" {
		query += ` WHERE channel = ?`
		args = append(args, channel)
	}
	query += ` GROUP BY kind`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Kind]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[Kind(kind)] = count
	}
	return counts, rows.Err()
}

// Prune deletes events recorded before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var affected int64
	err := s.write(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE recorded_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return affected, nil
}

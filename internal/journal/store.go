package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"influencer/internal/retry"
	"influencer/internal/services"
)

// Store is the SQLite-backed journal. It is safe for concurrent use; writers
// from other processes are absorbed by busy_timeout plus a short retry.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// busyPolicy covers lock contention that outlasts busy_timeout, e.g. the
// daemon and a CLI command recording at the same moment.
var busyPolicy = retry.Policy{
	MaxAttempts: 5,
	BaseDelay:   10 * time.Millisecond,
	MaxDelay:    200 * time.Millisecond,
}

// Open creates or opens the journal at path and brings its schema current.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle. It is safe on a nil Store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// write runs op, retrying while SQLite reports the database as locked.
func (s *Store) write(ctx context.Context, op func(ctx context.Context) error) error {
	return retry.Do(ctx, busyPolicy, func(ctx context.Context) error {
		err := op(ctx)
		if busy(err) {
			return services.Wrap(services.ErrTransient, "journal", "write", "database locked", err)
		}
		return err
	})
}

func busy(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code()&0xff == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

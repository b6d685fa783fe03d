package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"influencer/internal/config"
	"influencer/internal/logging"
)

// Job is one scheduled unit of work.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Daemon coordinates scheduled runs and enforces single-instance execution.
type Daemon struct {
	logger   *slog.Logger
	jobs     []Job
	lockPath string
	lock     *flock.Flock
	location *time.Location

	// serializes jobs; produce and upload share the channel roots
	work sync.Mutex

	cron    *cron.Cron
	entries map[string]cron.EntryID
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	Entries      []Entry
}

// ErrAlreadyRunning reports a second instance.
var ErrAlreadyRunning = errors.New("another influencer daemon instance is already running")

// New constructs a daemon. Jobs with an empty spec are kept for RunNow but
// never scheduled.
func New(cfg *config.Config, jobs []Job, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if len(jobs) == 0 {
		return nil, errors.New("daemon requires at least one job")
	}
	loc, err := time.LoadLocation(cfg.Posting.QuotaTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	lockPath := filepath.Join(cfg.Paths.StateDir, "influencer-daemon.lock")
	return &Daemon{
		logger:   logging.NewComponentLogger(logger, "daemon"),
		jobs:     jobs,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		location: loc,
	}, nil
}

// Start acquires the daemon lock and starts the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	cl := cronLogger{logger: d.logger}
	d.cron = cron.New(
		cron.WithLocation(d.location),
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	d.entries = make(map[string]cron.EntryID, len(d.jobs))
	for _, job := range d.jobs {
		if job.Spec == "" {
			continue
		}
		id, err := d.cron.AddFunc(job.Spec, func() { _ = d.execute(job) })
		if err != nil {
			d.cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
		d.entries[job.Name] = id
	}
	d.cron.Start()
	d.running.Store(true)
	d.logger.Info("influencer daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("jobs", len(d.entries)),
	)
	return nil
}

// Stop cancels in-flight jobs, waits for them and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.cancel()
	<-d.cron.Stop().Done()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("influencer daemon stopped")
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// RunNow executes the named job immediately on the caller's goroutine.
func (d *Daemon) RunNow(name string) error {
	if !d.running.Load() {
		return errors.New("daemon not running")
	}
	for _, job := range d.jobs {
		if job.Name == name {
			return d.execute(job)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (d *Daemon) execute(job Job) error {
	if !d.work.TryLock() {
		d.logger.Info("skipping job; another job is still running", logging.String("job", job.Name))
		return nil
	}
	defer d.work.Unlock()

	start := time.Now()
	d.logger.Info("job started", logging.String("job", job.Name))
	err := job.Run(d.ctx)
	switch {
	case err == nil:
		d.logger.Info("job completed", logging.String("job", job.Name), logging.Duration("duration", time.Since(start)))
	case d.ctx.Err() != nil:
		d.logger.Info("job interrupted by shutdown", logging.String("job", job.Name), logging.Error(err))
	default:
		logging.ErrorWithContext(d.logger, "job failed", "daemon_job_failed",
			logging.String("job", job.Name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next scheduled run will retry"),
		)
	}
	return err
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{Running: d.running.Load(), LockFilePath: d.lockPath}
	if d.cron == nil {
		return status
	}
	for _, job := range d.jobs {
		id, ok := d.entries[job.Name]
		if !ok {
			continue
		}
		e := d.cron.Entry(id)
		status.Entries = append(status.Entries, Entry{Name: job.Name, Spec: job.Spec, Next: e.Next, Prev: e.Prev})
	}
	return status
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}

package daemon_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"influencer/internal/daemon"
	"influencer/internal/logging"
	"influencer/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var runs atomic.Int32
	jobs := []daemon.Job{
		{Name: "produce", Spec: "0 6 * * *", Run: func(context.Context) error { runs.Add(1); return nil }},
		{Name: "upload", Spec: "30 18 * * *", Run: func(context.Context) error { return errors.New("boom") }},
	}
	d, err := daemon.New(cfg, jobs, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if len(status.Entries) != 2 || status.Entries[0].Next.IsZero() {
		t.Fatalf("entries = %+v", status.Entries)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}
	other, err := daemon.New(cfg, jobs, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(ctx); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("second instance error = %v, want ErrAlreadyRunning", err)
	}

	if err := d.RunNow("produce"); err != nil || runs.Load() != 1 {
		t.Fatalf("RunNow produce: err=%v runs=%d", err, runs.Load())
	}
	if err := d.RunNow("upload"); err == nil {
		t.Fatal("expected upload job error to surface")
	}
	if err := d.RunNow("missing"); err == nil {
		t.Fatal("expected unknown job error")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var seen context.Context
	jobs := []daemon.Job{{Name: "produce", Run: func(ctx context.Context) error {
		seen = ctx
		return nil
	}}}
	d, err := daemon.New(cfg, jobs, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.RunNow("produce"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	d.Stop()
	if seen == nil || seen.Err() == nil {
		t.Fatal("job context not cancelled by Stop")
	}
}

func TestNewRejectsEmptyJobs(t *testing.T) {
	if _, err := daemon.New(testsupport.NewConfig(t), nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for no jobs")
	}
}

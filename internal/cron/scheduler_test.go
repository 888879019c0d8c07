package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// simpleJob is a minimal Job for scheduler tests.
type simpleJob struct {
	name     string
	schedule string
	runFunc  func(ctx context.Context) error
	mu       sync.Mutex
	calls    int
}

func (j *simpleJob) Name() string     { return j.name }
func (j *simpleJob) Schedule() string { return j.schedule }
func (j *simpleJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	if j.runFunc != nil {
		return j.runFunc(ctx)
	}
	return nil
}

func (j *simpleJob) callCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func TestScheduler_RegisterJob_DuplicateName(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	if err := s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"}); err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}
	if err := s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"}); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestScheduler_Start_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{name: "bad", schedule: "invalid"})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	// A failed start leaves nothing to stop.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop after failed start: %v", err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{name: "noop", schedule: "* * * * *"})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestScheduler_NilLogger(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if s.logger == nil {
		t.Fatal("logger should default to slog.Default()")
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	t.Parallel()

	if err := NewScheduler(slog.Default()).Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestScheduler_RunNow(t *testing.T) {
	t.Parallel()

	job := &simpleJob{name: "manual", schedule: "0 0 1 1 *"}
	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(job)

	if err := s.RunNow(context.Background(), "manual"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if job.callCount() != 1 {
		t.Errorf("calls = %d, want 1", job.callCount())
	}

	if err := s.RunNow(context.Background(), "missing"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("RunNow(missing) = %v, want ErrUnknownJob", err)
	}
}

func TestScheduler_RunNowPropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{name: "failing", schedule: "* * * * *", runFunc: func(context.Context) error { return boom }})

	if err := s.RunNow(context.Background(), "failing"); !errors.Is(err, boom) {
		t.Errorf("RunNow = %v, want %v", err, boom)
	}
}

func TestScheduler_NoParallelExecution(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var running atomic.Int32

	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{
		name:     "slow",
		schedule: "0 0 1 1 *",
		runFunc: func(context.Context) error {
			running.Add(1)
			close(started)
			<-release
			return nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "slow") }()
	<-started

	if err := s.RunNow(context.Background(), "slow"); !errors.Is(err, ErrJobBusy) {
		t.Errorf("second RunNow = %v, want ErrJobBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first RunNow: %v", err)
	}
	if running.Load() != 1 {
		t.Errorf("job ran %d times, want 1", running.Load())
	}
}

func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"*/5 * * * *", "0 3 * * *", "0 0 1 1 *"} {
		if err := ValidateSchedule(expr); err != nil {
			t.Errorf("ValidateSchedule(%q) = %v", expr, err)
		}
	}
	for _, expr := range []string{"", "invalid", "60 * * * *", "0 25 * * *", "* * * * * *"} {
		if err := ValidateSchedule(expr); err == nil {
			t.Errorf("ValidateSchedule(%q) = nil, want error", expr)
		}
	}
}

func FuzzValidateSchedule(f *testing.F) {
	f.Add("*/5 * * * *")
	f.Add("0 0 * * *")
	f.Add("invalid")
	f.Add("")
	f.Add("0 25 * * *")

	f.Fuzz(func(_ *testing.T, expr string) {
		_ = ValidateSchedule(expr)
	})
}

// ---------------------------------------------------------------------------
// CachePruneJob
// ---------------------------------------------------------------------------

type stubPruner struct {
	calls  atomic.Int32
	maxAge time.Duration
	n      int64
	err    error
}

func (p *stubPruner) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	p.calls.Add(1)
	p.maxAge = olderThan
	return p.n, p.err
}

func TestCachePruneJob(t *testing.T) {
	t.Parallel()

	store := &stubPruner{n: 4}
	j := &CachePruneJob{Store: store, MaxAge: 72 * time.Hour, Logger: slog.Default()}

	if j.Name() != "token_cache_prune" {
		t.Errorf("Name() = %q", j.Name())
	}
	if j.Schedule() != DefaultPruneSchedule {
		t.Errorf("Schedule() = %q, want %q", j.Schedule(), DefaultPruneSchedule)
	}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.calls.Load() != 1 || store.maxAge != 72*time.Hour {
		t.Errorf("calls=%d maxAge=%s, want 1 and 72h", store.calls.Load(), store.maxAge)
	}

	j.ScheduleExpr = "*/5 * * * *"
	if j.Schedule() != "*/5 * * * *" {
		t.Errorf("Schedule() = %q", j.Schedule())
	}
}

func TestCachePruneJob_Errors(t *testing.T) {
	t.Parallel()

	failing := &CachePruneJob{Store: &stubPruner{err: errors.New("disk full")}}
	if err := failing.Run(context.Background()); err == nil {
		t.Error("expected store error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &stubPruner{}
	if err := (&CachePruneJob{Store: store}).Run(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
	if store.calls.Load() != 0 {
		t.Error("cancelled job must not touch the store")
	}
}

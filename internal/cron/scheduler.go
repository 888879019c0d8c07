package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ErrUnknownJob is returned by RunNow for an unregistered job name.
var ErrUnknownJob = errors.New("cron: unknown job")

// ErrJobBusy is returned by RunNow when the job is already running.
var ErrJobBusy = errors.New("cron: job already running")

// Scheduler manages periodic job execution using cron expressions.
// A job never runs concurrently with itself: a tick that finds the previous
// run still in progress is skipped.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   map[string]Job
	order  []string
	locks  map[string]*sync.Mutex
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. Jobs must be registered before Start.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:   make(map[string]Job),
		locks:  make(map[string]*sync.Mutex),
		logger: logger,
	}
}

// RegisterJob adds a job. Names must be unique.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}
	s.jobs[name] = j
	s.order = append(s.order, name)
	s.locks[name] = &sync.Mutex{}
	return nil
}

// Start begins executing registered jobs. Jobs receive a context derived
// from ctx that is cancelled by Stop. Returns an error if any job has an
// invalid schedule expression.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cron = cron.New(cron.WithParser(parser))

	for _, name := range s.order {
		job := s.jobs[name]
		if _, err := s.cron.AddFunc(job.Schedule(), func() { s.tick(ctx, job) }); err != nil {
			cancel()
			s.cron = nil
			return fmt.Errorf("cron: invalid schedule for job %q: %w", name, err)
		}
	}

	s.cancel = cancel
	s.cron.Start()
	s.logger.Info("cron: scheduler started", "jobs", len(s.order))
	return nil
}

func (s *Scheduler) tick(ctx context.Context, job Job) {
	if err := s.run(ctx, job); err != nil {
		if errors.Is(err, ErrJobBusy) {
			s.logger.Warn("cron: job still running, skipping tick", "job", job.Name())
			return
		}
		s.logger.Error("cron: job failed", "job", job.Name(), "error", err)
	}
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	lock := s.locks[job.Name()]
	if !lock.TryLock() {
		return ErrJobBusy
	}
	defer lock.Unlock()

	s.logger.Debug("cron: job started", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		return err
	}
	s.logger.Debug("cron: job completed", "job", job.Name())
	return nil
}

// RunNow runs a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, job)
}

// Stop shuts the scheduler down and waits for in-flight jobs, or until ctx
// is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("cron: scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron: stop: %w", ctx.Err())
	}
}

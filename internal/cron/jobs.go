package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// CachePruneJobName is the registered name of CachePruneJob.
	CachePruneJobName = "token_cache_prune"

	// DefaultPruneSchedule runs the cache prune daily at 03:00.
	DefaultPruneSchedule = "0 3 * * *"
)

// Pruner is the subset of tokencache.Store needed by the prune job.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CachePruneJob removes token counts unused for longer than MaxAge.
type CachePruneJob struct {
	Store        Pruner
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = DefaultPruneSchedule
}

var _ Job = (*CachePruneJob)(nil)

// Name implements Job.
func (j *CachePruneJob) Name() string { return CachePruneJobName }

// Schedule implements Job.
func (j *CachePruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return DefaultPruneSchedule
}

// Run prunes the cache.
func (j *CachePruneJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: cache prune cancelled: %w", ctx.Err())
	}
	removed, err := j.Store.Prune(ctx, j.MaxAge)
	if err != nil {
		return fmt.Errorf("cron: cache prune: %w", err)
	}
	if removed > 0 && j.Logger != nil {
		j.Logger.Info("cron: pruned token cache", "removed", removed, "max_age", j.MaxAge)
	}
	return nil
}

package core

// scheduler.go re-runs every configured source on a fixed interval.
//
// The scheduler is long-running and context-aware for graceful shutdown. A
// failed source is logged and does not stop the schedule.

import (
	"context"
	"log/slog"
	"time"
)

// StartScheduler runs all sources every interval until ctx is cancelled.
// The first pass starts after one interval. A non-positive interval returns
// immediately.
func (s *Service) StartScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	slog.Info("run scheduler started", "interval", interval, "sources", len(s.order))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx = ContextWithTrigger(ctx, TriggerSchedule)
	for {
		select {
		case <-ctx.Done():
			slog.Info("run scheduler stopped")
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

func (s *Service) runScheduled(ctx context.Context) {
	start := time.Now()
	failed := 0
	for _, o := range s.RunAll(ctx) {
		if !o.OK() {
			failed++
		}
	}
	slog.Info("scheduled runs completed",
		"sources", len(s.order),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

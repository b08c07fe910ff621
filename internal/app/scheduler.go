package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"vibracional/internal/logger"
)

// Scheduler wraps cron-based background jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a stopped scheduler evaluating specs in loc.
func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleInterval registers a periodic job every given duration.
func (s *Scheduler) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep purges expired sessions and drops idle progress trackers.
func Sweep(ctx context.Context, auth *AuthService, progress *ProgressService, trackerIdle time.Duration) error {
	purged, err := auth.PurgeExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	evicted := 0
	if progress != nil && trackerIdle > 0 {
		evicted = progress.Evict(trackerIdle)
	}
	logger.Info("sweep finished", "sessions_purged", purged, "trackers_evicted", evicted)
	return nil
}

// SweepJob adapts Sweep to a scheduler job with its own timeout.
func SweepJob(auth *AuthService, progress *ProgressService, trackerIdle time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := Sweep(ctx, auth, progress, trackerIdle); err != nil {
			logger.Error("sweep failed", "err", err)
		}
	}
}

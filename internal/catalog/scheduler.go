package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic refresh passes on a fixed interval. Scheduled and
// manual refreshes share the Synchronizer's pass mutex, so they never
// interleave.
type Scheduler struct {
	cron     *cron.Cron
	sync     *Synchronizer
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a refresh scheduler for the given interval.
func NewScheduler(sync *Synchronizer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sync:     sync,
		interval: interval,
		logger:   logger,
	}
}

// Start registers the refresh entry and starts the cron scheduler.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx := context.Background()
		if _, refreshErr := s.sync.Refresh(ctx); refreshErr != nil {
			s.logger.Warn("scheduled refresh failed", "error", refreshErr)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule refresh every %s: %w", s.interval, err)
	}
	s.cron.Start()
	s.logger.Info("refresh scheduler started", "interval", s.interval.String())
	return nil
}

// Stop stops the cron scheduler. A refresh already in flight runs to
// completion on the Synchronizer's own mutex.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("refresh scheduler stopped")
}

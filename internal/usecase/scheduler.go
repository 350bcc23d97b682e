package usecase

import (
	"context"
	"time"

	"NewsRelay/internal/ports"
)

// Scheduler wires the cron-like driver with full pipeline cycles.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline}
}

// Start registers the pipeline cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(time.Time) {
		if err := s.pipeline.Cycle(ctx); err != nil {
			s.pipeline.logger.Error("pipeline cycle finished with errors", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

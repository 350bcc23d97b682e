package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"NewsRelay/internal/ports"
)

// CronScheduler triggers recurring jobs from a standard cron expression.
type CronScheduler struct {
	spec   string
	loc    *time.Location
	runner *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for the given cron expression and
// timezone.
func NewCronScheduler(spec string, loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, loc: loc}
}

// Start registers the job and begins scheduling. Calling Start twice is a
// no-op.
func (c *CronScheduler) Start(_ context.Context, job func(time.Time)) error {
	if job == nil || c.runner != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.loc))
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.loc)) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	runner.Start()
	c.runner = runner
	return nil
}

// Stop halts scheduling and waits for a running job, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.runner == nil {
		return nil
	}

	done := c.runner.Stop()
	c.runner = nil

	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

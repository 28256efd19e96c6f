package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job is one timer-driven unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
	// Next returns the first run time strictly after now.
	Next func(now time.Time) time.Time
}

// Every schedules run at a fixed interval.
func Every(name string, interval time.Duration, run func(ctx context.Context) error) Job {
	return Job{
		Name: name,
		Run:  run,
		Next: func(now time.Time) time.Time { return now.Add(interval) },
	}
}

// DailyAt schedules run once a day at hour:00 in loc.
func DailyAt(name string, hour int, loc *time.Location, run func(ctx context.Context) error) Job {
	return Job{
		Name: name,
		Run:  run,
		Next: func(now time.Time) time.Time { return nextDailyRun(now, hour, loc) },
	}
}

// nextDailyRun returns the next hour:00 in loc strictly after now.
func nextDailyRun(now time.Time, hour int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}

// Scheduler runs each job on its own timer until the context is cancelled.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{jobs: jobs, logger: logger, now: time.Now}
}

// Run blocks until ctx is cancelled. It returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		g.Go(func() error {
			s.loop(ctx, job)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	s.logger.InfoContext(ctx, "scheduler job started", "job", job.Name)
	for {
		wait := job.Next(s.now()).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.InfoContext(ctx, "scheduler job stopped", "job", job.Name)
			return
		case <-timer.C:
			if err := s.runOnce(ctx, job); err != nil {
				s.logger.ErrorContext(ctx, "scheduler job failed",
					"job", job.Name,
					"error", err,
				)
			}
		}
	}
}

// runOnce invokes the job, converting a panic into an error so the next tick still fires.
func (s *Scheduler) runOnce(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

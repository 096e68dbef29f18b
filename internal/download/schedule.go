package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/handiism/apod-downloader/internal/model"
)

// Scheduler repeats a pipeline run on a cron schedule, e.g. to fetch
// yesterday's picture every morning.
//
// Runs never overlap: a tick that fires while the previous run is still
// going is skipped.
type Scheduler struct {
	pipeline *Pipeline
	spec     string
	schedule cron.Schedule
	req      Request
	logger   *slog.Logger

	runs atomic.Int64
}

// NewScheduler creates a Scheduler for a standard cron expression or
// descriptor ("0 9 * * *", "@daily", "@every 6h").
//
// A request with a fixed date is rejected, since it would fetch the same
// picture every time.
func NewScheduler(p *Pipeline, spec string, req Request) (*Scheduler, error) {
	if req.Date != nil {
		return nil, errors.New("a fixed date cannot be scheduled")
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	return &Scheduler{
		pipeline: p,
		spec:     spec,
		schedule: schedule,
		req:      req,
		logger:   p.logger,
	}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Runs returns how many runs have started.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Run blocks until ctx is cancelled, running the pipeline at each
// activation. A failed run is logged and does not stop the schedule.
//
// Cancelling ctx stops new activations but not a download already in
// progress: Run waits for it to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.runOnce(ctx)
	}))
	c.Start()

	s.logger.Info("scheduler started",
		slog.String("schedule", s.spec),
		slog.Time("next", s.Next(time.Now())))

	<-ctx.Done()
	<-c.Stop().Done()

	s.logger.Info("scheduler stopped", slog.Int64("runs", s.Runs()))
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.runs.Add(1)

	start := time.Now()
	result, err := s.pipeline.Run(context.WithoutCancel(ctx), s.req)
	switch {
	case err == nil:
		s.logger.Info("scheduled download completed",
			slog.String("date", result.Date.ISO()),
			slog.String("path", result.Path),
			slog.Duration("duration", time.Since(start)))
	case errors.Is(err, model.ErrNoValidDate):
		s.logger.Warn("scheduled download skipped", slog.Any("error", err))
	default:
		s.logger.Error("scheduled download failed",
			slog.Any("error", err),
			slog.Int("exit_code", ExitCode(err)))
	}
}

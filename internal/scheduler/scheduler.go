// Package scheduler wires the cron trigger that fires scan cycles on a fixed
// wall-clock interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is the unit of work the scheduler fires. RunScanCycle reports
// whether it actually ran or was skipped by the single-flight guard.
type Runner interface {
	RunScanCycle(ctx context.Context) bool
}

// Scheduler wraps robfig/cron and owns the scan trigger.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// New creates a scheduler that triggers the runner at the given interval.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Start registers the scan job and starts the cron loop. One cycle runs
// immediately so a fresh process does not sit idle until the first tick.
// Returns after scheduling; Stop shuts the loop down.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling scan job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "interval", s.interval.String())

	// Immediate first cycle, off the cron goroutine.
	go s.run(ctx)

	return nil
}

// Stop shuts down the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.runner.RunScanCycle(ctx) {
		s.logger.Debug("scan cycle skipped, previous cycle still running")
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jobs runs periodic maintenance on a cron scheduler and provides
// the logging and panic recovery wrappers shared with the dispatch workers.
package jobs

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron instance whose jobs all run through the recovery
// and logging wrappers. A run that is still going when its next tick fires
// makes that tick a no-op.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	logger = logger.With("system", "cron")
	c := cron.New(
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		),
	)
	return &Scheduler{cron: c, logger: logger}
}

// Add registers j on the standard five-field or descriptor spec
// ("@every 1h").
func (s *Scheduler) Add(spec string, j cron.Job) error {
	if _, err := s.cron.AddJob(spec, j); err != nil {
		return fmt.Errorf("schedule %s on %q: %w", JobName(j), spec, err)
	}
	s.logger.Info("job registered", "job", JobName(j), "schedule", spec)
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started")
}

// Stop prevents new runs and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron scheduler stopped")
}

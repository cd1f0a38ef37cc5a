// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package jobs

import (
	"log/slog"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// NewLoggingWrapper logs the start and end of every run with a unique
// execution id so one run's lines can be grepped together.
func NewLoggingWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			jobLogger := logger.With(
				slog.String("job", JobName(j)),
				slog.String("execution_id", uuid.NewString()),
			)

			start := time.Now()
			jobLogger.Debug("job started")
			j.Run()
			jobLogger.Info("job finished", slog.Duration("duration", time.Since(start)))
		})
	}
}

// NewPanicRecoveryWrapper turns a panicking run into an error log entry
// with the stack trace. The process keeps running.
func NewPanicRecoveryWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("job panicked",
						slog.String("job", JobName(j)),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			j.Run()
		})
	}
}

// Wrap applies the recovery and logging wrappers to j, recovery outermost.
func Wrap(logger *slog.Logger, j cron.Job) cron.Job {
	return cron.NewChain(
		NewPanicRecoveryWrapper(logger),
		NewLoggingWrapper(logger),
	).Then(j)
}

// JobName prefers the job's own Name method and falls back to its type.
func JobName(j cron.Job) string {
	if named, ok := j.(interface{ Name() string }); ok {
		return named.Name()
	}
	t := reflect.TypeOf(j)
	if t.Kind() == reflect.Ptr {
		return t.Elem().String()
	}
	return t.String()
}

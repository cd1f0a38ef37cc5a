// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"postflow/internal/jobs"
	"postflow/internal/models"
)

// taskTimeout bounds one task, independent of worker shutdown.
const taskTimeout = 2 * time.Minute

// Handler processes one translation task.
type Handler interface {
	Dispatch(ctx context.Context, record models.Post) (Result, error)
}

// Worker runs a fixed pool of consumers on a Queue. Failed tasks are
// logged and dropped; the next edit of the post dispatches again.
type Worker struct {
	queue   Queue
	handler Handler
	size    int
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker returns a pool of size consumers. Call Start to run it.
func NewWorker(q Queue, h Handler, size int, logger *slog.Logger) *Worker {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{queue: q, handler: h, size: size, logger: logger.With("component", "dispatch")}
}

// Start launches the consumers. They run until Close or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.logger.Info("starting translation workers", "concurrency", w.size)
	for i := 1; i <= w.size; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

// Close stops taking new tasks and waits for the tasks in hand.
func (w *Worker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("translation workers stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", "worker_id", id, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// The task runs to completion even if shutdown starts meanwhile.
		job := &translateJob{ctx: context.WithoutCancel(ctx), task: task, handler: w.handler, logger: w.logger}
		jobs.Wrap(w.logger, job).Run()
	}
}

// translateJob adapts one task to cron.Job so it shares the scheduler's
// recovery and logging wrappers.
type translateJob struct {
	ctx     context.Context
	task    Task
	handler Handler
	logger  *slog.Logger
}

func (j *translateJob) Name() string { return "translate:" + j.task.Record.Slug }

func (j *translateJob) Run() {
	ctx, cancel := context.WithTimeout(j.ctx, taskTimeout)
	defer cancel()

	res, err := j.handler.Dispatch(ctx, j.task.Record)
	if err != nil {
		j.logger.Error("translation task failed",
			"slug", j.task.Record.Slug,
			"queued_for", time.Since(j.task.EnqueuedAt).Round(time.Millisecond),
			"error", err,
		)
		return
	}
	j.logger.Info("translation task done", "slug", j.task.Record.Slug, "skipped", res.Skipped, "locales", len(res.Locales))
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"postflow/internal/models"
)

// DefaultQueueKey is the Valkey list holding pending translation tasks.
const DefaultQueueKey = "postflow:translate"

// ErrQueueFull is returned by MemoryQueue.Enqueue when the buffer is full.
var ErrQueueFull = errors.New("translation queue is full")

// Task asks for one source post to be translated.
type Task struct {
	Record     models.Post `json:"record"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

// Queue carries translation tasks from the request path to the workers.
type Queue interface {
	Enqueue(ctx context.Context, t Task) error
	// Dequeue blocks until a task is available or ctx is done.
	Dequeue(ctx context.Context) (Task, error)
}

// RedisQueue is a FIFO on a Valkey list: LPUSH to enqueue, BRPOP to take.
// Pending tasks survive a restart of the application.
type RedisQueue struct {
	client *redis.Client
	key    string
	poll   time.Duration
}

// NewRedisQueue returns a queue stored under key (DefaultQueueKey if empty).
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, poll: 5 * time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, t Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue polls with a bounded BRPOP so a cancelled ctx is noticed within
// one poll interval.
func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}
		res, err := q.client.BRPop(ctx, q.poll, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Task{}, ctx.Err()
			}
			return Task{}, fmt.Errorf("dequeue task: %w", err)
		}

		// res is [key, value].
		var t Task
		if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
			return Task{}, fmt.Errorf("unmarshal task: %w", err)
		}
		return t, nil
	}
}

// Len reports the number of pending tasks.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// MemoryQueue is an in-process buffered queue. Pending tasks are lost on
// restart.
type MemoryQueue struct {
	ch chan Task
}

// NewMemoryQueue returns a queue holding up to size pending tasks.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{ch: make(chan Task, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, t Task) error {
	select {
	case q.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case t := <-q.ch:
		return t, nil
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

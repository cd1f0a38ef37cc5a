// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// CheckFunc checks one dependency.
type CheckFunc func(ctx context.Context) error

// Health reports whether the database and cache answer.
type Health struct {
	names  []string
	checks map[string]CheckFunc
}

// NewHealth returns a Health with no checks.
func NewHealth() *Health {
	return &Health{checks: make(map[string]CheckFunc)}
}

// Add registers a named check. A nil fn is skipped.
func (h *Health) Add(name string, fn CheckFunc) *Health {
	if fn == nil {
		return h
	}
	h.names = append(h.names, name)
	h.checks[name] = fn
	return h
}

// ServeHTTP answers 200 when every check passes and 503 otherwise.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.names))
	for _, name := range h.names {
		if err := h.checks[name](ctx); err != nil {
			slog.Warn("health check failed", "check", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": results})
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for
// postflow. It organizes routes into public, admin and internal groups
// with appropriate middleware stacks.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"postflow/internal/handlers"
	"postflow/internal/middleware"
)

const (
	// maxAdminBody covers a cover image plus the text fields.
	maxAdminBody = 16 << 20
	// maxWebhookBody bounds internal webhook payloads.
	maxWebhookBody = 1 << 20
)

// Options carries the handler groups and access settings.
type Options struct {
	Public   *handlers.Public
	Admin    *handlers.Admin
	Internal *handlers.Internal
	Health   http.Handler

	AdminUser         string
	AdminPasswordHash string
	ServiceToken      string

	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
	// DevMode lets the admin and internal groups run open when their
	// secret is not configured.
	DevMode bool

	// RateLimiter throttles public and admin routes. Nil disables it.
	RateLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(o Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check: no auth, no rate limit.
	r.Method(http.MethodGet, "/health", o.Health)

	// Internal webhooks, called by the database and the storage service.
	r.Route("/internal", func(r chi.Router) {
		r.Use(serviceAuth(o))
		r.Use(middleware.MaxBody(maxWebhookBody))
		r.Post("/translate-post", o.Internal.TranslatePost)
		r.Post("/optimize-image", o.Internal.OptimizeImage)
	})

	r.Group(func(r chi.Router) {
		if o.RateLimiter != nil {
			r.Use(o.RateLimiter.Middleware)
		}

		// Admin routes: Basic auth, CSRF protection, bounded bodies.
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth(o))
			r.Use(middleware.NewCSRF(o.SecureCookies))
			r.Use(middleware.MaxBody(maxAdminBody))

			r.Get("/", o.Admin.Index)
			r.Get("/posts/new", o.Admin.New)
			r.Post("/posts", o.Admin.Create)
			r.Get("/posts/{slug}/edit", o.Admin.Edit)
			r.Post("/posts/{id}", o.Admin.Update)
		})

		// Public blog.
		r.Get("/", o.Public.Root)
		r.Get("/{locale}", o.Public.Home)
		r.Get("/{locale}/blog", o.Public.Blog)
		r.Get("/{locale}/blog/{slug}", o.Public.Post)
	})

	return r
}

func adminAuth(o Options) func(http.Handler) http.Handler {
	if o.AdminPasswordHash == "" && o.DevMode {
		slog.Warn("ADMIN_PASSWORD_HASH not set, admin routes are open (development only)")
		return passthrough
	}
	return middleware.BasicAuth(o.AdminUser, o.AdminPasswordHash)
}

func serviceAuth(o Options) func(http.Handler) http.Handler {
	if o.ServiceToken == "" && o.DevMode {
		slog.Warn("SERVICE_TOKEN not set, internal routes are open (development only)")
		return passthrough
	}
	return middleware.ServiceToken(o.ServiceToken)
}

func passthrough(next http.Handler) http.Handler { return next }

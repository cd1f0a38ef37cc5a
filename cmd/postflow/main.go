// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the postflow server.
// It loads configuration, connects to services, starts the translation
// workers and the cron scheduler, and serves HTTP with graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"postflow/internal/cache"
	"postflow/internal/config"
	"postflow/internal/database"
	"postflow/internal/dispatch"
	"postflow/internal/handlers"
	"postflow/internal/imaging"
	"postflow/internal/imaging/vips"
	"postflow/internal/jobs"
	"postflow/internal/logging"
	"postflow/internal/middleware"
	"postflow/internal/optimize"
	"postflow/internal/posts"
	"postflow/internal/render"
	"postflow/internal/router"
	"postflow/internal/storage"
	"postflow/internal/store"
	"postflow/internal/translate"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, flush := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Dev: cfg.IsDev()})
	defer flush()
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"dispatch_queue", cfg.DispatchQueue,
		"image_encoder", cfg.ImageEncoder,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	postStore := store.NewPostStore(db)

	// Connect to Valkey (page cache and translation queue). Development
	// runs without it: no page cache, in-memory queue.
	var (
		valkeyClient *redis.Client
		pageCache    *cache.PageCache
	)
	valkeyClient, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	switch {
	case err == nil:
		defer valkeyClient.Close()
		pageCache = cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)
	case cfg.IsDev():
		slog.Warn("valkey unavailable, page cache disabled", "error", err)
		valkeyClient = nil
	default:
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}

	// Initialize the HTML template renderer.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Connect to S3-compatible object storage (optional, covers are
	// disabled without it). Interfaces stay nil rather than holding a
	// nil *storage.Client.
	var (
		blobs         posts.Blobs
		covers        handlers.CoverResolver
		images        handlers.ImagePipeline
		storageClient *storage.Client
	)
	storageClient, err = storage.New(storage.Options{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBucket:  cfg.S3BucketPublic,
		RawBucket:     cfg.S3BucketRaw,
		PublicBaseURL: cfg.StoragePublicBaseURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"raw_bucket", cfg.S3BucketRaw,
		)
		blobs = storageClient
		covers = storageClient

		var optimizer imaging.Optimizer = imaging.Builtin{}
		if cfg.ImageEncoder == "vips" {
			vips.Startup(0)
			defer vips.Shutdown()
			optimizer = vips.Optimizer{}
		}
		images = optimize.NewPipeline(storageClient, postStore, optimizer, pageCache)
	} else {
		slog.Warn("s3 storage not configured, cover uploads disabled")
	}

	// Translation: provider client, dispatcher, queue and workers.
	var (
		translator handlers.Translator
		enqueuer   posts.Enqueuer
		worker     *dispatch.Worker
	)
	provider, err := translate.New(cfg.TranslateProvider, translate.ProviderConfig{
		APIKey:  cfg.TranslateAPIKey,
		Model:   cfg.TranslateModel,
		BaseURL: cfg.TranslateBaseURL,
	})
	if err != nil {
		if !cfg.IsDev() {
			slog.Error("failed to initialize translation provider", "error", err)
			os.Exit(1)
		}
		slog.Warn("translation disabled", "error", err)
	} else {
		dispatcher := dispatch.NewDispatcher(postStore, provider, pageCache, cfg.TranslateDelay)
		translator = dispatcher

		var queue dispatch.Queue
		if cfg.DispatchQueue == "valkey" && valkeyClient != nil {
			queue = dispatch.NewRedisQueue(valkeyClient, dispatch.DefaultQueueKey)
		} else {
			queue = dispatch.NewMemoryQueue(0)
		}
		enqueuer = queue

		worker = dispatch.NewWorker(queue, dispatcher, cfg.DispatchWorkers, logger.With("system", "dispatch"))
		worker.Start(context.Background())
		slog.Info("translation enabled", "provider", provider.Name(), "queue", cfg.DispatchQueue)
	}

	// Periodic maintenance.
	scheduler := jobs.NewScheduler(logger)
	if storageClient != nil {
		sweep := jobs.NewOrphanSweep(storageClient, postStore, cfg.OrphanGrace)
		if err := scheduler.Add(cfg.OrphanSweepSchedule, sweep); err != nil {
			slog.Error("failed to schedule orphan sweep", "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	// Create handler groups with their dependencies.
	actions := posts.NewService(postStore, blobs, pageCache, enqueuer)
	health := handlers.NewHealth().Add("database", postStore.Ping)
	if valkeyClient != nil {
		health.Add("valkey", func(ctx context.Context) error { return valkeyClient.Ping(ctx).Err() })
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	defer limiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Options{
		Public:            handlers.NewPublic(postStore, covers, renderer, pageCache, cfg.SiteURL),
		Admin:             handlers.NewAdmin(renderer, postStore, actions, covers),
		Internal:          handlers.NewInternal(translator, images),
		Health:            health,
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: cfg.AdminPasswordHash,
		ServiceToken:      cfg.ServiceToken,
		SecureCookies:     !cfg.IsDev(),
		DevMode:           cfg.IsDev(),
		RateLimiter:       limiter,
	})

	// Create the HTTP server. WriteTimeout accommodates synchronous
	// translate-post calls, which pace two locales through the provider.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Stop background work after the last request that could enqueue.
	scheduler.Stop()
	if worker != nil {
		worker.Close()
	}

	slog.Info("server stopped gracefully")
}

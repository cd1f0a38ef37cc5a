// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables (optionally seeded from a .env file). It provides a centralized
// Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host    string
	Port    string
	Env     string // "development", "production", "testing"
	SiteURL string // absolute origin used for canonical links

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache and translation queue)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage
	S3Endpoint           string
	S3Region             string
	S3AccessKey          string
	S3SecretKey          string
	S3BucketPublic       string
	S3BucketRaw          string
	StoragePublicBaseURL string

	// Translation
	TranslateProvider string // "google" or "openai"
	TranslateAPIKey   string
	TranslateModel    string // openai only
	TranslateBaseURL  string // empty uses the provider default
	TranslateDelay    time.Duration
	DispatchQueue     string // "valkey" or "memory"
	DispatchWorkers   int

	// Images
	ImageEncoder string // "vips" or "builtin"

	// Access control
	AdminUser         string
	AdminPasswordHash string
	ServiceToken      string

	// Background jobs
	OrphanSweepSchedule string
	OrphanGrace         time.Duration

	// Logging
	LogLevel string
	LogFile  string

	RateLimitPerMinute int
}

var defaults = map[string]any{
	"APP_HOST": "0.0.0.0",
	"APP_PORT": "8080",
	"APP_ENV":  "development",
	"SITE_URL": "http://localhost:8080",

	"POSTGRES_HOST":     "localhost",
	"POSTGRES_PORT":     "5432",
	"POSTGRES_USER":     "postflow",
	"POSTGRES_PASSWORD": "changeme",
	"POSTGRES_DB":       "postflow",

	"VALKEY_HOST": "localhost",
	"VALKEY_PORT": "6379",

	"S3_REGION":        "us-east-1",
	"S3_BUCKET_PUBLIC": "public-post-images",
	"S3_BUCKET_RAW":    "post-images-raw",

	"TRANSLATE_PROVIDER": "google",
	"TRANSLATE_DELAY":    "200ms",
	"DISPATCH_QUEUE":     "valkey",
	"DISPATCH_WORKERS":   2,

	"IMAGE_ENCODER": "vips",

	"ADMIN_USER": "admin",

	"ORPHAN_SWEEP_SCHEDULE": "@every 1h",
	"ORPHAN_GRACE":          "24h",

	"LOG_LEVEL": "info",

	"RATE_LIMIT_PER_MINUTE": 120,
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first if present; real environment variables take precedence.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	cfg := &Config{
		Host:    v.GetString("APP_HOST"),
		Port:    v.GetString("APP_PORT"),
		Env:     v.GetString("APP_ENV"),
		SiteURL: strings.TrimRight(v.GetString("SITE_URL"), "/"),

		DBHost:     v.GetString("POSTGRES_HOST"),
		DBPort:     v.GetString("POSTGRES_PORT"),
		DBUser:     v.GetString("POSTGRES_USER"),
		DBPassword: v.GetString("POSTGRES_PASSWORD"),
		DBName:     v.GetString("POSTGRES_DB"),

		ValkeyHost:     v.GetString("VALKEY_HOST"),
		ValkeyPort:     v.GetString("VALKEY_PORT"),
		ValkeyPassword: v.GetString("VALKEY_PASSWORD"),

		S3Endpoint:           v.GetString("S3_ENDPOINT"),
		S3Region:             v.GetString("S3_REGION"),
		S3AccessKey:          v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:          v.GetString("S3_SECRET_KEY"),
		S3BucketPublic:       v.GetString("S3_BUCKET_PUBLIC"),
		S3BucketRaw:          v.GetString("S3_BUCKET_RAW"),
		StoragePublicBaseURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),

		TranslateProvider: v.GetString("TRANSLATE_PROVIDER"),
		TranslateAPIKey:   v.GetString("TRANSLATE_API_KEY"),
		TranslateModel:    v.GetString("TRANSLATE_MODEL"),
		TranslateBaseURL:  v.GetString("TRANSLATE_BASE_URL"),
		TranslateDelay:    v.GetDuration("TRANSLATE_DELAY"),
		DispatchQueue:     v.GetString("DISPATCH_QUEUE"),
		DispatchWorkers:   v.GetInt("DISPATCH_WORKERS"),

		ImageEncoder: v.GetString("IMAGE_ENCODER"),

		AdminUser:         v.GetString("ADMIN_USER"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		ServiceToken:      v.GetString("SERVICE_TOKEN"),

		OrphanSweepSchedule: v.GetString("ORPHAN_SWEEP_SCHEDULE"),
		OrphanGrace:         v.GetDuration("ORPHAN_GRACE"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),

		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and, in production, the secrets that
// must not keep their development defaults.
func (c *Config) Validate() error {
	switch c.DispatchQueue {
	case "valkey", "memory":
	default:
		return fmt.Errorf("DISPATCH_QUEUE must be valkey or memory, got %q", c.DispatchQueue)
	}
	switch c.TranslateProvider {
	case "google", "openai":
	default:
		return fmt.Errorf("TRANSLATE_PROVIDER must be google or openai, got %q", c.TranslateProvider)
	}
	switch c.ImageEncoder {
	case "vips", "builtin":
	default:
		return fmt.Errorf("IMAGE_ENCODER must be vips or builtin, got %q", c.ImageEncoder)
	}
	if c.DispatchWorkers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1")
	}

	if c.Env == "production" {
		if c.DBPassword == "changeme" {
			return fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be set in production")
		}
		if c.ServiceToken == "" {
			return fmt.Errorf("SERVICE_TOKEN must be set in production")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// StorageConfigured reports whether enough S3 settings are present to build
// a storage client.
func (c *Config) StorageConfigured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != ""
}

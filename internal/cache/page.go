// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed full-page HTML cache (L2).
// Public blog pages are stored under their request path (including the
// query string) so repeat requests skip the DB query and template execution.
// Writes to posts revalidate the affected paths.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages full-page HTML caching in Valkey. A nil *PageCache is
// valid and caches nothing.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML for a page key.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML for a page key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if pc == nil {
		return
	}
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// InvalidatePaths drops every cached variant of each path: the bare path
// and any key that adds a query string to it (e.g. "/pt/blog?page=2").
// Failures are logged; a stale page expires with its TTL anyway.
func (pc *PageCache) InvalidatePaths(ctx context.Context, paths ...string) {
	if pc == nil {
		return
	}
	for _, path := range paths {
		keys := []string{pageKeyPrefix + path}
		keys = append(keys, pc.scan(ctx, pageKeyPrefix+escapeGlob(path)+"[?]*")...)
		if err := pc.client.Del(ctx, keys...).Err(); err != nil {
			slog.Warn("page cache invalidate error", "path", path, "error", err)
			continue
		}
		slog.Debug("page cache invalidated", "path", path, "keys", len(keys))
	}
}

// InvalidateAll removes all cached pages by scanning for the prefix.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if pc == nil {
		return
	}
	keys := pc.scan(ctx, pageKeyPrefix+"*")
	if len(keys) == 0 {
		return
	}
	if err := pc.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("page cache bulk delete error", "error", err)
		return
	}
	slog.Info("page cache fully cleared", "deleted", len(keys))
}

func (pc *PageCache) scan(ctx context.Context, match string) []string {
	var (
		cursor uint64
		found  []string
	)
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "match", match, "error", err)
			return found
		}
		found = append(found, keys...)
		cursor = next
		if cursor == 0 {
			return found
		}
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

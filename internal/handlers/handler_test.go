// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared fakes and helpers for handler tests.
// Tests that need Valkey are skipped when it is unavailable.
package handlers

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"postflow/internal/models"
	"postflow/internal/posts"
	"postflow/internal/render"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "page:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	rn, err := render.New(false)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return rn
}

// withChiURLParams adds chi URL parameters to a request, given as
// alternating keys and values.
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func strPtr(s string) *string { return &s }

// fakePosts is an in-memory read model for public and admin handlers.
type fakePosts struct {
	mu    sync.Mutex
	posts []models.Post
	err   error
	calls int
}

func (f *fakePosts) published(locale models.Locale) []models.Post {
	var out []models.Post
	for _, p := range f.posts {
		if p.Locale == locale && p.Status == models.PostStatusPublished {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(*out[j].PublishedAt) })
	return out
}

func (f *fakePosts) ListPublished(_ context.Context, locale models.Locale, limit, offset int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	all := f.published(locale)
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (f *fakePosts) CountPublished(_ context.Context, locale models.Locale) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return len(f.published(locale)), nil
}

func (f *fakePosts) FindPublished(_ context.Context, slug string, locale models.Locale) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.published(locale) {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePosts) ListAllForAdmin(_ context.Context, locale models.Locale) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Post
	for _, p := range f.posts {
		if locale == "" || p.Locale == locale {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePosts) FindAllBySlug(_ context.Context, slug string) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Post
	for _, p := range f.posts {
		if p.Slug == slug {
			out = append(out, p)
		}
	}
	return out, nil
}

// publishedPost builds a published post n minutes after a fixed instant.
func publishedPost(slug string, locale models.Locale, n int) models.Post {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
	return models.Post{
		ID:          uuid.New(),
		Slug:        slug,
		Title:       strings.ToUpper(slug[:1]) + slug[1:],
		ContentHTML: "<p>" + slug + "</p>",
		Locale:      locale,
		Status:      models.PostStatusPublished,
		PublishedAt: &at,
		UpdatedAt:   at,
	}
}

// fakeResolver composes relative cover values against a fixed base.
type fakeResolver struct{}

func (fakeResolver) ResolvePublicURL(stored string) (string, bool) {
	if stored == "" {
		return "", false
	}
	if strings.HasPrefix(stored, "http") {
		return stored, true
	}
	return "https://cdn.example.com/" + stored, true
}

// fakeActions records admin actions.
type fakeActions struct {
	form    posts.Form
	id      uuid.UUID
	err     error
	created int
	updated int
}

func (f *fakeActions) Create(_ context.Context, form posts.Form) (*models.Post, error) {
	f.form = form
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	return &models.Post{ID: uuid.New(), Slug: "created", Locale: models.SourceLocale}, nil
}

func (f *fakeActions) Update(_ context.Context, id uuid.UUID, form posts.Form) (*models.Post, error) {
	f.form = form
	f.id = id
	if f.err != nil {
		return nil, f.err
	}
	f.updated++
	return &models.Post{ID: id, Slug: "updated", Locale: form.Locale}, nil
}

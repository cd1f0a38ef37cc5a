// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"postflow/internal/cache"
	"postflow/internal/models"
	"postflow/internal/render"
)

// PostsPerPage is the size of one public listing page.
const PostsPerPage = 12

// PublicPosts is the read side of the post repository used by the blog.
type PublicPosts interface {
	ListPublished(ctx context.Context, locale models.Locale, limit, offset int) ([]models.Post, error)
	CountPublished(ctx context.Context, locale models.Locale) (int, error)
	FindPublished(ctx context.Context, slug string, locale models.Locale) (*models.Post, error)
}

// CoverResolver turns stored cover values into URLs.
type CoverResolver interface {
	ResolvePublicURL(stored string) (string, bool)
}

// Public groups handlers for the public blog. It checks the L2 Valkey
// page cache before rendering, and stores rendered results on miss.
type Public struct {
	posts     PublicPosts
	covers    CoverResolver
	renderer  *render.Renderer
	pageCache *cache.PageCache
	siteURL   string
	policy    *bluemonday.Policy
}

// NewPublic creates a new Public handler group. covers and pageCache may
// be nil.
func NewPublic(posts PublicPosts, covers CoverResolver, renderer *render.Renderer, pageCache *cache.PageCache, siteURL string) *Public {
	return &Public{
		posts:     posts,
		covers:    covers,
		renderer:  renderer,
		pageCache: pageCache,
		siteURL:   strings.TrimRight(siteURL, "/"),
		policy:    bluemonday.UGCPolicy(),
	}
}

// Root redirects to the source locale.
func (p *Public) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+string(models.SourceLocale), http.StatusFound)
}

// Home sends /{locale} to its blog listing.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	locale, ok := localeParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/"+string(locale)+"/blog", http.StatusFound)
}

// Blog renders one page of the published posts in a locale.
func (p *Public) Blog(w http.ResponseWriter, r *http.Request) {
	locale, ok := localeParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	page := 1
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 1 {
		page = n
	}
	key := r.URL.Path
	if page > 1 {
		key += "?page=" + strconv.Itoa(page)
	}
	if p.serveCached(w, r, key) {
		return
	}

	total, err := p.posts.CountPublished(ctx, locale)
	if err != nil {
		slog.Error("count published posts failed", "error", err, "locale", locale)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	totalPages := (total + PostsPerPage - 1) / PostsPerPage
	if page > 1 && page > totalPages {
		http.NotFound(w, r)
		return
	}

	list, err := p.posts.ListPublished(ctx, locale, PostsPerPage, (page-1)*PostsPerPage)
	if err != nil {
		slog.Error("list published posts failed", "error", err, "locale", locale)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := render.ListPage{
		Title:      "Blog",
		Locale:     locale,
		Canonical:  p.siteURL + key,
		Page:       page,
		TotalPages: totalPages,
	}
	for _, post := range list {
		card := render.PostCard{
			Title:       post.Title,
			Slug:        post.Slug,
			CoverURL:    p.coverURL(post.CoverImageURL),
			PublishedAt: post.PublishedAt,
		}
		if post.Excerpt != nil {
			card.Excerpt = *post.Excerpt
		}
		data.Posts = append(data.Posts, card)
	}

	p.serveRendered(w, r, key, "list", data)
}

// Post renders one published post.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	locale, ok := localeParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	slugParam := chi.URLParam(r, "slug")
	key := r.URL.Path
	if p.serveCached(w, r, key) {
		return
	}

	post, err := p.posts.FindPublished(r.Context(), slugParam, locale)
	if err != nil {
		slog.Error("find published post failed", "error", err, "slug", slugParam, "locale", locale)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	canonical := p.siteURL + "/" + string(locale) + "/blog/" + post.Slug
	cover := p.coverURL(post.CoverImageURL)
	data := render.PostPage{
		Title:       post.Title,
		Locale:      locale,
		Canonical:   canonical,
		CoverURL:    cover,
		PublishedAt: post.PublishedAt,
		Body:        template.HTML(p.policy.Sanitize(post.ContentHTML)),
		JSONLD:      blogPosting(post, canonical, cover),
	}
	if post.Excerpt != nil {
		data.Excerpt = *post.Excerpt
	}

	p.serveRendered(w, r, key, "post", data)
}

// blogPosting builds the schema.org BlogPosting object for a post.
func blogPosting(post *models.Post, canonical, cover string) map[string]any {
	ld := map[string]any{
		"@context":         "https://schema.org",
		"@type":            "BlogPosting",
		"headline":         post.Title,
		"inLanguage":       string(post.Locale),
		"mainEntityOfPage": canonical,
		"url":              canonical,
		"dateModified":     post.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if post.PublishedAt != nil {
		ld["datePublished"] = post.PublishedAt.UTC().Format(time.RFC3339)
	}
	if post.Excerpt != nil {
		ld["description"] = *post.Excerpt
	}
	if cover != "" {
		ld["image"] = cover
	}
	return ld
}

func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	cached, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(cached)
	return true
}

func (p *Public) serveRendered(w http.ResponseWriter, r *http.Request, key, name string, data any) {
	rendered, err := p.renderer.Public(name, data)
	if err != nil {
		slog.Error("render public page failed", "error", err, "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.pageCache.Set(r.Context(), key, rendered)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(rendered)
}

// coverURL resolves a stored cover value. Without a resolver only absolute
// URLs are usable.
func (p *Public) coverURL(stored *string) string {
	if stored == nil {
		return ""
	}
	if p.covers != nil {
		u, _ := p.covers.ResolvePublicURL(*stored)
		return u
	}
	lower := strings.ToLower(*stored)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return *stored
	}
	return ""
}

func localeParam(r *http.Request) (models.Locale, bool) {
	return models.ParseLocale(chi.URLParam(r, "locale"))
}

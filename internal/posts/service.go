// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package posts implements the admin create and update actions. Each action
// validates, decides the publish state, uploads a new cover, writes the row,
// then cleans up, revalidates and queues translation. A failed row write
// removes the cover uploaded by the same request; the previous cover is only
// removed after the row is committed.
package posts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"postflow/internal/apperr"
	"postflow/internal/dispatch"
	"postflow/internal/models"
	"postflow/internal/publish"
	"postflow/internal/storage"
	"postflow/internal/store"
)

// ErrStorageUnavailable is wrapped in an UploadError when a cover is
// submitted but no blob store is configured.
var ErrStorageUnavailable = errors.New("storage is not configured")

// Form is one submission of the admin post form. The Current* fields are
// the hidden bookkeeping values rendered with the form, so the action does
// not re-read the row.
type Form struct {
	Title       string
	Slug        string
	Excerpt     string
	ContentHTML string
	Cover       *storage.File
	RemoveCover bool
	Intent      string

	Locale               models.Locale
	OriginalSlug         string
	CurrentStatus        models.PostStatus
	CurrentPublishedAt   *time.Time
	CurrentCoverImageURL string
}

// Store is the post repository surface the actions write to.
type Store interface {
	Insert(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error)
	CoverInUse(ctx context.Context, values ...string) (bool, error)
}

// Blobs is the cover image store.
type Blobs interface {
	Upload(ctx context.Context, f storage.File) (storage.Object, error)
	Remove(ctx context.Context, key string)
	OwnedKey(stored string) (string, bool)
}

// Revalidator drops cached public pages.
type Revalidator interface {
	InvalidatePaths(ctx context.Context, paths ...string)
}

// Enqueuer hands translation work to the dispatch workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, t dispatch.Task) error
}

// Service runs the admin actions.
type Service struct {
	store Store
	blobs Blobs
	pages Revalidator
	queue Enqueuer
	now   func() time.Time
}

// NewService wires the actions. blobs, pages and queue may be nil.
func NewService(s Store, blobs Blobs, pages Revalidator, queue Enqueuer) *Service {
	return &Service{store: s, blobs: blobs, pages: pages, queue: queue, now: time.Now}
}

// Create stores a new source-locale post.
func (s *Service) Create(ctx context.Context, f Form) (*models.Post, error) {
	in, err := validate(f)
	if err != nil {
		return nil, err
	}
	intent, err := publish.ParseIntent(f.Intent)
	if err != nil {
		return nil, err
	}
	decision, err := publish.Decide(publish.Input{
		Intent:     intent,
		PrevStatus: models.PostStatusDraft,
		HasCover:   f.Cover != nil,
		Now:        s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, f.Cover)
	if err != nil {
		return nil, err
	}

	p := &models.Post{
		Slug:        in.slug,
		Title:       in.title,
		Excerpt:     in.excerpt,
		ContentHTML: in.content,
		Locale:      models.SourceLocale,
		Status:      decision.Status,
		PublishedAt: decision.PublishedAt,
	}
	if uploaded != nil {
		p.CoverImageURL = &uploaded.PublicURL
	}

	if err := s.store.Insert(ctx, p); err != nil {
		s.compensate(ctx, uploaded)
		return nil, persistenceError("create post", err)
	}
	slog.Info("post created", "id", p.ID, "slug", p.Slug, "status", p.Status)

	s.revalidate(ctx, p.Locale, p.Slug, "", models.PostStatusDraft, p.Status)
	s.enqueue(ctx, p)
	return p, nil
}

// Update applies the form to the post with the given id.
func (s *Service) Update(ctx context.Context, id uuid.UUID, f Form) (*models.Post, error) {
	in, err := validate(f)
	if err != nil {
		return nil, err
	}
	intent, err := publish.ParseIntent(f.Intent)
	if err != nil {
		return nil, err
	}

	prevStatus := f.CurrentStatus
	if prevStatus == "" {
		prevStatus = models.PostStatusDraft
	}
	keepsCover := f.CurrentCoverImageURL != "" && !f.RemoveCover
	decision, err := publish.Decide(publish.Input{
		Intent:          intent,
		PrevStatus:      prevStatus,
		PrevPublishedAt: f.CurrentPublishedAt,
		HasCover:        f.Cover != nil || keepsCover,
		Now:             s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, f.Cover)
	if err != nil {
		return nil, err
	}

	patch := models.PostPatch{
		Slug:        models.Some(in.slug),
		Title:       models.Some(in.title),
		Excerpt:     models.FromPtr(in.excerpt),
		ContentHTML: models.Some(in.content),
		Status:      models.Some(decision.Status),
		PublishedAt: models.FromPtr(decision.PublishedAt),
	}
	switch {
	case uploaded != nil:
		patch.CoverImageURL = models.Some(uploaded.PublicURL)
	case f.RemoveCover:
		patch.CoverImageURL = models.Null[string]()
	}

	p, err := s.store.Update(ctx, id, patch)
	if err != nil {
		s.compensate(ctx, uploaded)
		return nil, persistenceError("update post", err)
	}
	slog.Info("post updated", "id", p.ID, "slug", p.Slug, "status", p.Status)

	if uploaded != nil || f.RemoveCover {
		s.removePrevious(ctx, f.CurrentCoverImageURL, p)
	}

	locale := f.Locale
	if locale == "" {
		locale = p.Locale
	}
	s.revalidate(ctx, locale, p.Slug, f.OriginalSlug, prevStatus, p.Status)
	s.enqueue(ctx, p)
	return p, nil
}

func (s *Service) upload(ctx context.Context, file *storage.File) (*storage.Object, error) {
	if file == nil {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, &apperr.UploadError{Key: file.Name, Err: ErrStorageUnavailable}
	}
	obj, err := s.blobs.Upload(ctx, *file)
	if err != nil {
		var ue *apperr.UploadError
		if !errors.As(err, &ue) {
			err = &apperr.UploadError{Key: file.Name, Err: err}
		}
		slog.Error("cover upload failed", "file", file.Name, "error", err)
		return nil, err
	}
	return &obj, nil
}

// compensate removes a cover uploaded by a request whose row write failed.
func (s *Service) compensate(ctx context.Context, uploaded *storage.Object) {
	if uploaded == nil {
		return
	}
	slog.Warn("removing cover after failed write", "key", uploaded.Key)
	s.blobs.Remove(context.WithoutCancel(ctx), uploaded.Key)
}

// removePrevious deletes the cover the post owned before this request. Only
// keys inside the public bucket are touched, and never one a row still
// points at: translated variants share the source's cover. Blobs left
// behind are collected by the orphan sweep once nothing uses them.
func (s *Service) removePrevious(ctx context.Context, previous string, p *models.Post) {
	if s.blobs == nil || previous == "" {
		return
	}
	if p.CoverImageURL != nil && *p.CoverImageURL == previous {
		return
	}
	key, ok := s.blobs.OwnedKey(previous)
	if !ok {
		slog.Debug("previous cover not owned, keeping", "url", previous)
		return
	}
	ctx = context.WithoutCancel(ctx)
	used, err := s.store.CoverInUse(ctx, previous, key)
	if err != nil {
		slog.Warn("cover usage check failed, keeping blob", "key", key, "error", err)
		return
	}
	if used {
		slog.Debug("previous cover shared with another post, keeping", "key", key)
		return
	}
	s.blobs.Remove(ctx, key)
}

func (s *Service) revalidate(ctx context.Context, locale models.Locale, slug, originalSlug string, prev, next models.PostStatus) {
	if s.pages == nil {
		return
	}
	if paths := publish.Revalidations(locale, slug, originalSlug, prev, next); len(paths) > 0 {
		s.pages.InvalidatePaths(ctx, paths...)
	}
}

// enqueue queues translation for source-locale rows. Failures are logged;
// the post itself is already saved.
func (s *Service) enqueue(ctx context.Context, p *models.Post) {
	if s.queue == nil || p.Locale != models.SourceLocale {
		return
	}
	task := dispatch.Task{Record: *p, EnqueuedAt: s.now().UTC()}
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), task); err != nil {
		slog.Error("translation enqueue failed", "id", p.ID, "slug", p.Slug, "error", err)
	}
}

func persistenceError(op string, err error) error {
	if errors.Is(err, store.ErrSlugTaken) {
		return apperr.Validation("slug", "Another post in this language already uses this slug.")
	}
	slog.Error("post write failed", "op", op, "error", err)
	return &apperr.PersistenceError{Op: op, Err: err}
}

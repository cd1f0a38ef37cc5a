// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package dispatch turns a saved source-locale post into its translated
// variants. Dispatcher does the work for one post; Queue and Worker move
// that work off the request path.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"postflow/internal/apperr"
	"postflow/internal/models"
	"postflow/internal/publish"
	"postflow/internal/store"
	"postflow/internal/translate"
)

// PostStore is the subset of the post repository the dispatcher writes to.
type PostStore interface {
	FindDerived(ctx context.Context, sourceID uuid.UUID, locale models.Locale) (*models.Post, error)
	FindBySlugAndLocale(ctx context.Context, slug string, locale models.Locale) (*models.Post, error)
	Insert(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error)
}

// Revalidator drops cached pages after a variant changes.
type Revalidator interface {
	InvalidatePaths(ctx context.Context, paths ...string)
}

// Action values reported per locale.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionFailed  = "failed"
)

// LocaleResult reports what happened to one target locale.
type LocaleResult struct {
	Locale models.Locale `json:"locale"`
	Action string        `json:"action"`
	PostID string        `json:"post_id,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Result is the per-post dispatch report.
type Result struct {
	Skipped bool           `json:"skipped"`
	Message string         `json:"message"`
	Locales []LocaleResult `json:"locales,omitempty"`
}

// Dispatcher translates source posts into every target locale.
type Dispatcher struct {
	store      PostStore
	translator translate.Translator
	pages      Revalidator
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewDispatcher returns a dispatcher that waits at least delay between
// locales. The limiter is shared, so concurrent workers are paced together.
// pages may be nil.
func NewDispatcher(s PostStore, tr translate.Translator, pages Revalidator, delay time.Duration) *Dispatcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Dispatcher{
		store:      s,
		translator: tr,
		pages:      pages,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

// Dispatch creates or updates one row per target locale for record.
// Records in a non-source locale are skipped without error. A failure in
// one locale does not stop the others; the combined failures are returned
// as an *apperr.DispatchError next to the full report. Missing required
// fields yield a ValidationError and no work.
func (d *Dispatcher) Dispatch(ctx context.Context, record models.Post) (Result, error) {
	if record.Locale == "" {
		return Result{}, apperr.Validation("locale", "locale is required")
	}
	if record.Locale != models.SourceLocale {
		return Result{
			Skipped: true,
			Message: fmt.Sprintf("post is not in %s, skipping translation", models.SourceLocale),
		}, nil
	}
	if strings.TrimSpace(record.Title) == "" {
		return Result{}, apperr.Validation("title", "title is required")
	}
	if strings.TrimSpace(record.Slug) == "" {
		return Result{}, apperr.Validation("slug", "slug is required")
	}

	var (
		res  Result
		errs error
	)
	for _, target := range models.TargetLocales {
		if err := d.limiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("translation pacing: %w", err)
		}

		lr, err := d.dispatchLocale(ctx, record, target)
		if err != nil {
			slog.Error("translation failed", "slug", record.Slug, "locale", target, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", target, err))
			lr = LocaleResult{Locale: target, Action: ActionFailed, Error: err.Error()}
		}
		res.Locales = append(res.Locales, lr)
	}

	if errs != nil {
		res.Message = "post translated with errors"
		return res, &apperr.DispatchError{Op: "translate " + record.Slug, Err: errs}
	}
	res.Message = "post translated successfully"
	return res, nil
}

type translatedFields struct {
	title   string
	excerpt *string
	content string
}

func (d *Dispatcher) dispatchLocale(ctx context.Context, src models.Post, target models.Locale) (LocaleResult, error) {
	fields, err := d.translateFields(ctx, src, target)
	if err != nil {
		return LocaleResult{}, err
	}

	status, publishedAt := d.mirrorStatus(src)

	existing, err := d.findVariant(ctx, src, target)
	if err != nil {
		return LocaleResult{}, err
	}

	if existing == nil {
		p := &models.Post{
			Slug:          src.Slug,
			Title:         fields.title,
			Excerpt:       fields.excerpt,
			ContentHTML:   fields.content,
			CoverImageURL: src.CoverImageURL,
			Locale:        target,
			Status:        status,
			PublishedAt:   publishedAt,
		}
		if src.ID != uuid.Nil {
			id := src.ID
			p.SourceID = &id
		}
		err := d.store.Insert(ctx, p)
		if errors.Is(err, store.ErrSlugTaken) {
			// A concurrent dispatch created the row first.
			existing, err = d.store.FindBySlugAndLocale(ctx, src.Slug, target)
			if err != nil {
				return LocaleResult{}, fmt.Errorf("find after conflict: %w", err)
			}
			if existing == nil {
				return LocaleResult{}, fmt.Errorf("find after conflict: %w", store.ErrNotFound)
			}
		} else if err != nil {
			return LocaleResult{}, fmt.Errorf("insert: %w", err)
		} else {
			d.revalidate(ctx, target, src.Slug, src.Slug, models.PostStatusDraft, status)
			return LocaleResult{Locale: target, Action: ActionCreated, PostID: p.ID.String()}, nil
		}
	}

	patch := models.PostPatch{
		Slug:          models.Some(src.Slug),
		Title:         models.Some(fields.title),
		Excerpt:       models.FromPtr(fields.excerpt),
		ContentHTML:   models.Some(fields.content),
		CoverImageURL: models.FromPtr(src.CoverImageURL),
		Status:        models.Some(status),
		PublishedAt:   models.FromPtr(publishedAt),
	}
	if src.ID != uuid.Nil {
		patch.SourceID = models.Some(src.ID)
	}
	updated, err := d.store.Update(ctx, existing.ID, patch)
	if err != nil {
		return LocaleResult{}, fmt.Errorf("update: %w", err)
	}
	d.revalidate(ctx, target, updated.Slug, existing.Slug, existing.Status, updated.Status)
	return LocaleResult{Locale: target, Action: ActionUpdated, PostID: updated.ID.String()}, nil
}

// translateFields translates title, excerpt and content concurrently.
func (d *Dispatcher) translateFields(ctx context.Context, src models.Post, target models.Locale) (translatedFields, error) {
	var out translatedFields
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		out.title, err = d.translator.Translate(gctx, src.Title, translate.FormatText, models.SourceLocale, target)
		if err != nil {
			return fmt.Errorf("title: %w", err)
		}
		return nil
	})
	if src.Excerpt != nil {
		g.Go(func() error {
			s, err := d.translator.Translate(gctx, *src.Excerpt, translate.FormatText, models.SourceLocale, target)
			if err != nil {
				return fmt.Errorf("excerpt: %w", err)
			}
			out.excerpt = &s
			return nil
		})
	}
	g.Go(func() error {
		var err error
		out.content, err = d.translator.Translate(gctx, src.ContentHTML, translate.FormatHTML, models.SourceLocale, target)
		if err != nil {
			return fmt.Errorf("content: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return translatedFields{}, err
	}
	if strings.TrimSpace(out.title) == "" {
		return translatedFields{}, fmt.Errorf("title: empty translation")
	}
	return out, nil
}

// mirrorStatus copies the source status onto the variant, keeping the
// published_at pairing the posts table enforces.
func (d *Dispatcher) mirrorStatus(src models.Post) (models.PostStatus, *time.Time) {
	if src.Status != models.PostStatusPublished {
		return models.PostStatusDraft, nil
	}
	if src.PublishedAt != nil {
		t := *src.PublishedAt
		return models.PostStatusPublished, &t
	}
	t := d.now().UTC()
	return models.PostStatusPublished, &t
}

// findVariant looks the variant up by translation group first and by
// (slug, locale) for rows written before the group was recorded. The store
// reports a missing row as (nil, nil). Returns nil when no variant exists yet.
func (d *Dispatcher) findVariant(ctx context.Context, src models.Post, target models.Locale) (*models.Post, error) {
	if src.ID != uuid.Nil {
		p, err := d.store.FindDerived(ctx, src.ID, target)
		if err != nil {
			return nil, fmt.Errorf("find variant: %w", err)
		}
		if p != nil {
			return p, nil
		}
	}
	p, err := d.store.FindBySlugAndLocale(ctx, src.Slug, target)
	if err != nil {
		return nil, fmt.Errorf("find variant: %w", err)
	}
	return p, nil
}

func (d *Dispatcher) revalidate(ctx context.Context, locale models.Locale, slug, oldSlug string, prev, next models.PostStatus) {
	if d.pages == nil {
		return
	}
	if paths := publish.Revalidations(locale, slug, oldSlug, prev, next); len(paths) > 0 {
		d.pages.InvalidatePaths(ctx, paths...)
	}
}

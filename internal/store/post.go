// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"postflow/internal/models"
)

var (
	// ErrNotFound is returned by Update when no row has the given id.
	ErrNotFound = errors.New("post not found")
	// ErrSlugTaken is returned when another post already uses the slug in
	// the same locale.
	ErrSlugTaken = errors.New("slug already used in this locale")
)

const uniqueViolation = "23505"

// postColumns is the column list shared by every SELECT and RETURNING clause.
const postColumns = `id, slug, title, excerpt, content_html, cover_image_url,
	locale, status, published_at, source_id, created_at, updated_at`

// PostStore handles all post-related database operations. Every query
// touches the single posts table; there are no joins.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// scanPost scans a single row into a Post. Works with both *sql.Row and *sql.Rows.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.ContentHTML, &p.CoverImageURL,
		&p.Locale, &p.Status, &p.PublishedAt, &p.SourceID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostStore) findOne(ctx context.Context, op, where string, args ...any) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *PostStore) findMany(ctx context.Context, op, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.findOne(ctx, "find post by id", "id = $1", id)
}

// FindBySlugAndLocale retrieves one locale variant regardless of status.
// Returns nil if not found.
func (s *PostStore) FindBySlugAndLocale(ctx context.Context, slug string, locale models.Locale) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug and locale", "slug = $1 AND locale = $2", slug, locale)
}

// FindPublished retrieves a published variant for public rendering.
// Returns nil if it does not exist or is a draft.
func (s *PostStore) FindPublished(ctx context.Context, slug string, locale models.Locale) (*models.Post, error) {
	return s.findOne(ctx, "find published post",
		"slug = $1 AND locale = $2 AND status = 'published'", slug, locale)
}

// FindDerived retrieves the row translated from sourceID into locale.
// Returns nil if none exists yet.
func (s *PostStore) FindDerived(ctx context.Context, sourceID uuid.UUID, locale models.Locale) (*models.Post, error) {
	return s.findOne(ctx, "find derived post", "source_id = $1 AND locale = $2", sourceID, locale)
}

// FindAllBySlug returns every locale variant sharing slug, source locale first.
func (s *PostStore) FindAllBySlug(ctx context.Context, slug string) ([]models.Post, error) {
	return s.findMany(ctx, "find posts by slug", `
		SELECT `+postColumns+`
		FROM posts
		WHERE slug = $1
		ORDER BY CASE locale WHEN 'pt' THEN 0 WHEN 'en' THEN 1 ELSE 2 END
	`, slug)
}

// ListPublished returns published posts in locale, newest first.
func (s *PostStore) ListPublished(ctx context.Context, locale models.Locale, limit, offset int) ([]models.Post, error) {
	return s.findMany(ctx, "list published posts", `
		SELECT `+postColumns+`
		FROM posts
		WHERE locale = $1 AND status = 'published'
		ORDER BY published_at DESC, id
		LIMIT $2 OFFSET $3
	`, locale, limit, offset)
}

// CountPublished returns how many published posts exist in locale.
func (s *PostStore) CountPublished(ctx context.Context, locale models.Locale) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE locale = $1 AND status = 'published'`, locale,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count published posts: %w", err)
	}
	return n, nil
}

// ListAllForAdmin returns every post, drafts included, most recently
// published first with drafts last. An empty locale lists all locales.
func (s *PostStore) ListAllForAdmin(ctx context.Context, locale models.Locale) ([]models.Post, error) {
	return s.findMany(ctx, "list posts for admin", `
		SELECT `+postColumns+`
		FROM posts
		WHERE $1 = '' OR locale = $1
		ORDER BY published_at DESC NULLS LAST, updated_at DESC
	`, string(locale))
}

// Insert creates a new post and fills in its generated ID and timestamps.
func (s *PostStore) Insert(ctx context.Context, p *models.Post) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (slug, title, excerpt, content_html, cover_image_url,
		                   locale, status, published_at, source_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, p.Slug, p.Title, p.Excerpt, p.ContentHTML, p.CoverImageURL,
		p.Locale, p.Status, p.PublishedAt, p.SourceID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", mapError(err))
	}
	return nil
}

// Update writes the set fields of patch to the post with the given id and
// returns the stored row. updated_at is always refreshed. Concurrent
// updates are last-write-wins.
func (s *PostStore) Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, set bool, value any) {
		if !set {
			return
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("slug", patch.Slug.IsSet(), patch.Slug.Arg())
	add("title", patch.Title.IsSet(), patch.Title.Arg())
	add("excerpt", patch.Excerpt.IsSet(), patch.Excerpt.Arg())
	add("content_html", patch.ContentHTML.IsSet(), patch.ContentHTML.Arg())
	add("cover_image_url", patch.CoverImageURL.IsSet(), patch.CoverImageURL.Arg())
	add("status", patch.Status.IsSet(), patch.Status.Arg())
	add("published_at", patch.PublishedAt.IsSet(), patch.PublishedAt.Arg())
	add("source_id", patch.SourceID.IsSet(), patch.SourceID.Arg())
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $%d RETURNING `+postColumns,
		strings.Join(sets, ", "), len(args))

	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", mapError(err))
	}
	return p, nil
}

// RepointCover replaces the cover reference from with to on every row
// that currently uses from, returning the rows as updated.
func (s *PostStore) RepointCover(ctx context.Context, from, to string) ([]models.Post, error) {
	return s.findMany(ctx, "repoint cover", `
		UPDATE posts SET cover_image_url = $2, updated_at = NOW()
		WHERE cover_image_url = $1
		RETURNING `+postColumns, from, to)
}

// CoverReferences returns every distinct non-null cover value.
func (s *PostStore) CoverReferences(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT cover_image_url FROM posts WHERE cover_image_url IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list cover references: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan cover reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// CoverInUse reports whether any row's cover is one of values. The same
// blob can be stored as a public URL or as a bare key, so callers pass
// every form they know.
func (s *PostStore) CoverInUse(ctx context.Context, values ...string) (bool, error) {
	if len(values) == 0 {
		return false, nil
	}
	var used bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE cover_image_url = ANY($1))`, values,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("cover in use: %w", err)
	}
	return used, nil
}

// Ping checks database connectivity for the health endpoint.
func (s *PostStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "posts_slug_locale_key" {
		return ErrSlugTaken
	}
	return err
}

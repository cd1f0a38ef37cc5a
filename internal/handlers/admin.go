// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for postflow. Handlers are
// grouped by concern (public, admin, internal) and receive their
// dependencies through the handler struct.
package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"postflow/internal/apperr"
	"postflow/internal/models"
	"postflow/internal/posts"
	"postflow/internal/render"
	"postflow/internal/storage"
	"postflow/internal/store"
)

// maxFormMemory bounds the in-memory part of a multipart form.
const maxFormMemory = 16 << 20

// AdminPosts is the read side of the post repository used by the admin.
type AdminPosts interface {
	ListAllForAdmin(ctx context.Context, locale models.Locale) ([]models.Post, error)
	FindAllBySlug(ctx context.Context, slug string) ([]models.Post, error)
}

// PostActions runs the create and update actions.
type PostActions interface {
	Create(ctx context.Context, f posts.Form) (*models.Post, error)
	Update(ctx context.Context, id uuid.UUID, f posts.Form) (*models.Post, error)
}

// Admin groups the admin panel handlers and their dependencies.
type Admin struct {
	renderer *render.Renderer
	posts    AdminPosts
	actions  PostActions
	covers   CoverResolver
}

// NewAdmin creates a new Admin handler group. covers may be nil.
func NewAdmin(renderer *render.Renderer, p AdminPosts, actions PostActions, covers CoverResolver) *Admin {
	return &Admin{renderer: renderer, posts: p, actions: actions, covers: covers}
}

// formValues is what the form template reads back. It mirrors both a
// stored post and a rejected submission.
type formValues struct {
	ID                   string
	Title                string
	Slug                 string
	Excerpt              string
	ContentHTML          string
	Locale               string
	OriginalSlug         string
	CurrentStatus        string
	CurrentPublishedAt   string
	CurrentCoverImageURL string
	CoverPreview         string
}

// Index renders the post index, optionally filtered by ?locale=.
func (a *Admin) Index(w http.ResponseWriter, r *http.Request) {
	locale, _ := models.ParseLocale(r.URL.Query().Get("locale"))
	list, err := a.posts.ListAllForAdmin(r.Context(), locale)
	if err != nil {
		slog.Error("list posts failed", "error", err)
		a.renderer.Page(w, r, "index", &render.PageData{
			Title:   "Posts",
			Status:  http.StatusInternalServerError,
			Flashes: []render.Flash{{Type: "error", Message: "Posts could not be loaded."}},
			Data:    map[string]any{},
		})
		return
	}

	a.renderer.Page(w, r, "index", &render.PageData{
		Title: "Posts",
		Data:  map[string]any{"Posts": list},
	})
}

// New renders the empty create form.
func (a *Admin) New(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, r, "New post", formValues{CurrentStatus: string(models.PostStatusDraft)}, nil)
}

// Create handles the create form submission.
func (a *Admin) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		a.renderForm(w, r, "New post", submitted(r, ""), err)
		return
	}

	p, err := a.actions.Create(r.Context(), f)
	if err != nil {
		a.renderForm(w, r, "New post", submitted(r, ""), err)
		return
	}
	slog.Info("admin created post", "id", p.ID, "slug", p.Slug)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Edit renders the update form for /admin/posts/{slug}/edit?locale=xx. An
// unknown or missing locale falls back to the source locale, then to the
// first variant.
func (a *Admin) Edit(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	variants, err := a.posts.FindAllBySlug(r.Context(), slugParam)
	if err != nil {
		slog.Error("find posts by slug failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(variants) == 0 {
		http.NotFound(w, r)
		return
	}

	p := pickVariant(variants, models.Locale(r.URL.Query().Get("locale")))
	a.renderForm(w, r, "Edit post", a.storedValues(p), nil)
}

// Update handles the update form submission for /admin/posts/{id}.
func (a *Admin) Update(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := parseForm(r)
	if err != nil {
		a.renderForm(w, r, "Edit post", submitted(r, idStr), err)
		return
	}

	p, err := a.actions.Update(r.Context(), id, f)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		values := submitted(r, idStr)
		if a.covers != nil {
			values.CoverPreview, _ = a.covers.ResolvePublicURL(values.CurrentCoverImageURL)
		}
		a.renderForm(w, r, "Edit post", values, err)
		return
	}
	slog.Info("admin updated post", "id", p.ID, "slug", p.Slug, "locale", p.Locale, "status", p.Status)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// renderForm renders the post form, with an inline message when err is
// set: 422 for validation problems, 500 for everything else.
func (a *Admin) renderForm(w http.ResponseWriter, r *http.Request, title string, values formValues, err error) {
	data := &render.PageData{
		Title: title,
		Data:  map[string]any{"Form": values},
	}
	if err != nil {
		data.Status = http.StatusInternalServerError
		if apperr.IsValidation(err) {
			data.Status = http.StatusUnprocessableEntity
		} else {
			slog.Error("post action failed", "error", err, "path", r.URL.Path)
		}
		data.Flashes = []render.Flash{{Type: "error", Message: apperr.UserMessage(err)}}
	}
	a.renderer.Page(w, r, "form", data)
}

func (a *Admin) storedValues(p models.Post) formValues {
	v := formValues{
		ID:            p.ID.String(),
		Title:         p.Title,
		Slug:          p.Slug,
		ContentHTML:   p.ContentHTML,
		Locale:        string(p.Locale),
		OriginalSlug:  p.Slug,
		CurrentStatus: string(p.Status),
	}
	if p.Excerpt != nil {
		v.Excerpt = *p.Excerpt
	}
	if p.PublishedAt != nil {
		v.CurrentPublishedAt = p.PublishedAt.UTC().Format(time.RFC3339)
	}
	if p.CoverImageURL != nil {
		v.CurrentCoverImageURL = *p.CoverImageURL
		if a.covers != nil {
			v.CoverPreview, _ = a.covers.ResolvePublicURL(*p.CoverImageURL)
		}
	}
	return v
}

func pickVariant(variants []models.Post, want models.Locale) models.Post {
	for _, l := range []models.Locale{want, models.SourceLocale} {
		for _, p := range variants {
			if p.Locale == l {
				return p
			}
		}
	}
	return variants[0]
}

// submitted echoes the posted values back into the form.
func submitted(r *http.Request, id string) formValues {
	return formValues{
		ID:                   id,
		Title:                r.FormValue("title"),
		Slug:                 r.FormValue("slug"),
		Excerpt:              r.FormValue("excerpt"),
		ContentHTML:          r.FormValue("content_html"),
		Locale:               r.FormValue("locale"),
		OriginalSlug:         r.FormValue("original_slug"),
		CurrentStatus:        r.FormValue("current_status"),
		CurrentPublishedAt:   r.FormValue("current_published_at"),
		CurrentCoverImageURL: r.FormValue("current_cover_image_url"),
	}
}

// parseForm reads a multipart (or urlencoded) post form into posts.Form.
func parseForm(r *http.Request) (posts.Form, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return posts.Form{}, apperr.Validation("cover_image", "The upload is too large.")
		}
		return posts.Form{}, apperr.Validation("form", "The form could not be read.")
	}

	f := posts.Form{
		Title:                r.FormValue("title"),
		Slug:                 r.FormValue("slug"),
		Excerpt:              r.FormValue("excerpt"),
		ContentHTML:          r.FormValue("content_html"),
		RemoveCover:          r.FormValue("remove_cover") != "",
		Intent:               r.FormValue("intent"),
		OriginalSlug:         r.FormValue("original_slug"),
		CurrentStatus:        models.ParseStatus(r.FormValue("current_status")),
		CurrentCoverImageURL: r.FormValue("current_cover_image_url"),
	}
	if l, ok := models.ParseLocale(r.FormValue("locale")); ok {
		f.Locale = l
	}
	if v := r.FormValue("current_published_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return posts.Form{}, apperr.Validation("current_published_at", "The form is out of date. Reload and try again.")
		}
		f.CurrentPublishedAt = &t
	}

	cover, err := readCover(r)
	if err != nil {
		return posts.Form{}, err
	}
	f.Cover = cover
	return f, nil
}

// readCover returns the uploaded cover file, or nil when none was chosen.
func readCover(r *http.Request) (*storage.File, error) {
	file, header, err := r.FormFile("cover_image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("cover_image", "The cover image could not be read.")
	}
	defer file.Close()

	if header.Filename == "" || header.Size == 0 {
		return nil, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Validation("cover_image", "The cover image could not be read.")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &storage.File{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

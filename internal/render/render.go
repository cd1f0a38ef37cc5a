// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the admin forms and
// the public blog. Admin pages support full-page and HTMX partial
// rendering, detected via the HX-Request header. Public pages render to
// bytes so handlers can store them in the page cache.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"postflow/internal/middleware"
	"postflow/internal/models"
)

//go:embed templates
var templateFS embed.FS

// PageData holds all data passed to admin templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Status    int            // Response status, 200 when zero
	AdminUser string         // Authenticated admin, injected from context
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // Inline notification messages
}

// Flash represents a notification message displayed above a form.
type Flash struct {
	Type    string // "success", "error"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	admin   map[string]*template.Template
	public  map[string]*template.Template
	funcMap template.FuncMap
}

// New creates a Renderer by parsing every embedded template. Each page is
// paired with the base layout of its area. In development mode pages carry
// a noindex robots tag.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		admin:  make(map[string]*template.Template),
		public: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			"isDev": func() bool {
				return devMode
			},
			"date": func(t *time.Time) string {
				if t == nil {
					return ""
				}
				return t.Format("2006-01-02")
			},
			"isoDate": func(t *time.Time) string {
				if t == nil {
					return ""
				}
				return t.UTC().Format(time.RFC3339)
			},
			"locales": func() []models.Locale {
				return models.Locales
			},
		},
	}

	for area, dst := range map[string]map[string]*template.Template{"admin": r.admin, "public": r.public} {
		if err := r.parseArea(area, dst); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) parseArea(area string, dst map[string]*template.Template) error {
	dir := "templates/" + area
	entries, err := fs.ReadDir(templateFS, dir)
	if err != nil {
		return fmt.Errorf("read embedded templates: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			templateFS, dir+"/base.html", dir+"/"+name,
		)
		if err != nil {
			return fmt.Errorf("parse template %s/%s: %w", area, name, err)
		}
		dst[strings.TrimSuffix(name, ".html")] = tmpl
	}
	return nil
}

// Page renders a full admin page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.admin[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.AdminUser == "" {
		data.AdminUser = middleware.AdminUserFromCtx(r.Context())
	}

	execName := "base.html"
	if isHTMX(r) {
		execName = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("render admin page failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if data.Status != 0 {
		w.WriteHeader(data.Status)
	}
	w.Write(buf.Bytes())
}

// Public renders a public page to bytes.
func (rn *Renderer) Public(name string, data any) ([]byte, error) {
	tmpl, ok := rn.public[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// PostCard is one entry of the public listing.
type PostCard struct {
	Title       string
	Slug        string
	Excerpt     string
	CoverURL    string
	PublishedAt *time.Time
}

// ListPage is the data of a public listing page.
type ListPage struct {
	Title      string
	Locale     models.Locale
	Canonical  string
	Posts      []PostCard
	Page       int
	TotalPages int
}

func (p ListPage) PrevPage() int { return p.Page - 1 }
func (p ListPage) NextPage() int { return p.Page + 1 }

// PostPage is the data of a public post page. Body must already be
// sanitized.
type PostPage struct {
	Title       string
	Locale      models.Locale
	Canonical   string
	Excerpt     string
	CoverURL    string
	PublishedAt *time.Time
	Body        template.HTML
	JSONLD      map[string]any
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package posts

import (
	"strings"
	"unicode/utf8"

	"postflow/internal/apperr"
	"postflow/internal/slug"
)

// Validation limits for post form fields.
const (
	maxTitleLen   = 300
	maxSlugLen    = 300
	maxBodyLen    = 100_000
	maxExcerptLen = 1_000
	maxCoverSize  = 10 << 20
)

// normalized holds form values after validation.
type normalized struct {
	title   string
	slug    string
	excerpt *string
	content string
}

// validate checks the form and derives the slug from the slug field, or
// from the title when the slug field is blank.
func validate(f Form) (normalized, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return normalized{}, apperr.Validation("title", "Title is required.")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return normalized{}, apperr.Validation("title", "Title is too long (max 300 characters).")
	}

	content := strings.TrimSpace(f.ContentHTML)
	if content == "" {
		return normalized{}, apperr.Validation("content_html", "Content is required.")
	}
	if utf8.RuneCountInString(content) > maxBodyLen {
		return normalized{}, apperr.Validation("content_html", "Content is too long (max 100,000 characters).")
	}

	source := strings.TrimSpace(f.Slug)
	if source == "" {
		source = title
	}
	s := slug.Generate(source)
	if s == "" {
		return normalized{}, apperr.Validation("slug", "Slug is required and must contain letters or digits.")
	}
	if utf8.RuneCountInString(s) > maxSlugLen {
		return normalized{}, apperr.Validation("slug", "Slug is too long (max 300 characters).")
	}

	var excerpt *string
	if e := strings.TrimSpace(f.Excerpt); e != "" {
		if utf8.RuneCountInString(e) > maxExcerptLen {
			return normalized{}, apperr.Validation("excerpt", "Excerpt is too long (max 1,000 characters).")
		}
		excerpt = &e
	}

	if f.Cover != nil && len(f.Cover.Data) > maxCoverSize {
		return normalized{}, apperr.Validation("cover_image", "Cover image is too large (max 10 MB).")
	}

	return normalized{title: title, slug: s, excerpt: excerpt, content: content}, nil
}

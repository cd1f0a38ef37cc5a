// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Locale identifies one language variant of a post.
type Locale string

const (
	LocalePT Locale = "pt"
	LocaleEN Locale = "en"
	LocaleES Locale = "es"
)

// SourceLocale is the only locale posts are authored in and translated from.
const SourceLocale = LocalePT

// Locales lists every supported locale, source first.
var Locales = []Locale{LocalePT, LocaleEN, LocaleES}

// TargetLocales lists the locales derived rows are translated into, in
// dispatch order.
var TargetLocales = []Locale{LocaleEN, LocaleES}

// ParseLocale returns the Locale for s, or false if s is not supported.
func ParseLocale(s string) (Locale, bool) {
	for _, l := range Locales {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// ParseStatus maps a form or payload value to a PostStatus. Anything other
// than "published" is a draft.
func ParseStatus(s string) PostStatus {
	if s == string(PostStatusPublished) {
		return PostStatusPublished
	}
	return PostStatusDraft
}

// Post is one locale variant of an article. Variants of the same article
// share a slug; derived variants also point at their source through SourceID.
type Post struct {
	ID            uuid.UUID  `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Excerpt       *string    `json:"excerpt,omitempty"`
	ContentHTML   string     `json:"content_html"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	Locale        Locale     `json:"locale"`
	Status        PostStatus `json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	SourceID      *uuid.UUID `json:"source_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// HasCover reports whether the post references a cover image.
func (p *Post) HasCover() bool {
	return p.CoverImageURL != nil && *p.CoverImageURL != ""
}

// PostPatch is a partial update. Only fields that were set are written.
type PostPatch struct {
	Slug          Optional[string]
	Title         Optional[string]
	Excerpt       Optional[string]
	ContentHTML   Optional[string]
	CoverImageURL Optional[string]
	Status        Optional[PostStatus]
	PublishedAt   Optional[time.Time]
	SourceID      Optional[uuid.UUID]
}

// Empty reports whether no field is set.
func (p PostPatch) Empty() bool {
	return !p.Slug.IsSet() && !p.Title.IsSet() && !p.Excerpt.IsSet() &&
		!p.ContentHTML.IsSet() && !p.CoverImageURL.IsSet() && !p.Status.IsSet() &&
		!p.PublishedAt.IsSet() && !p.SourceID.IsSet()
}

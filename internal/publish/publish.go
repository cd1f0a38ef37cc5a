// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package publish decides post status transitions. Given what the editor
// asked for and what the post looked like before, Decide returns the next
// status and published_at, or rejects the request.
package publish

import (
	"time"

	"postflow/internal/apperr"
	"postflow/internal/models"
)

// Intent is the button the editor pressed.
type Intent string

const (
	IntentPublish Intent = "publish"
	IntentDraft   Intent = "draft"
	IntentUpdate  Intent = "update"
)

// ParseIntent validates a form value.
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentPublish, IntentDraft, IntentUpdate:
		return Intent(s), nil
	}
	return "", apperr.Validation("intent", "unknown action")
}

// Input is everything Decide needs; it never reads the database.
type Input struct {
	Intent          Intent
	PrevStatus      models.PostStatus
	PrevPublishedAt *time.Time
	// HasCover is true when the post will have a cover after this request:
	// a new upload, or an existing cover that is not being removed.
	HasCover bool
	Now      time.Time
}

// Decision is the resulting state.
type Decision struct {
	Status      models.PostStatus
	PublishedAt *time.Time
}

// ErrCoverRequired is the message used when publishing without a cover.
const ErrCoverRequired = "cover image required"

// Decide applies the transition table:
//
//	publish                  -> published, keeps a previous published_at or stamps now
//	draft                    -> draft, published_at cleared
//	update on published post -> published, keeps a previous published_at or stamps now
//	update on draft          -> draft, published_at cleared
//
// Any outcome that would be published without a cover is rejected.
func Decide(in Input) (Decision, error) {
	var next models.PostStatus
	switch in.Intent {
	case IntentPublish:
		next = models.PostStatusPublished
	case IntentDraft:
		next = models.PostStatusDraft
	case IntentUpdate:
		next = models.PostStatusDraft
		if in.PrevStatus == models.PostStatusPublished {
			next = models.PostStatusPublished
		}
	default:
		return Decision{}, apperr.Validation("intent", "unknown action")
	}

	if next == models.PostStatusDraft {
		return Decision{Status: models.PostStatusDraft}, nil
	}

	if !in.HasCover {
		return Decision{}, apperr.Validation("cover_image", ErrCoverRequired)
	}

	at := in.Now
	if in.PrevPublishedAt != nil && !in.PrevPublishedAt.After(in.Now) {
		at = *in.PrevPublishedAt
	}
	return Decision{Status: models.PostStatusPublished, PublishedAt: &at}, nil
}

// Revalidations returns the public paths whose cached rendering is stale
// after a post in locale moved from prev to next. Nothing public changes
// unless one side is published. A renamed published post also drops the
// detail page under its old slug.
func Revalidations(locale models.Locale, slug, originalSlug string, prev, next models.PostStatus) []string {
	if prev != models.PostStatusPublished && next != models.PostStatusPublished {
		return nil
	}

	base := "/" + string(locale) + "/blog"
	paths := []string{base, base + "/" + slug}
	if originalSlug != "" && originalSlug != slug {
		paths = append(paths, base+"/"+originalSlug)
	}
	return paths
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package optimize runs when a raw cover image lands in the raw bucket: it
// produces the web-ready copy in the public bucket and repoints every post
// that referenced the raw object.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"postflow/internal/imaging"
	"postflow/internal/models"
	"postflow/internal/publish"
)

// ErrWrongBucket is returned for events outside the raw bucket.
var ErrWrongBucket = errors.New("wrong bucket")

// ErrMissingObject is returned when the event names no object.
var ErrMissingObject = errors.New("missing object information")

// Event identifies one newly stored raw object.
type Event struct {
	Bucket string
	Name   string
}

// Storage is the blob store surface the pipeline needs.
type Storage interface {
	RawBucket() string
	PublicBucket() string
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte, upsert bool) error
}

// Covers repoints post cover references and returns the rows it changed.
type Covers interface {
	RepointCover(ctx context.Context, from, to string) ([]models.Post, error)
}

// Revalidator drops cached public pages.
type Revalidator interface {
	InvalidatePaths(ctx context.Context, paths ...string)
}

// Outcome reports the derived object and how many posts now use it.
type Outcome struct {
	Optimized string `json:"optimized"`
	Updated   int64  `json:"updated"`
}

// Pipeline optimizes raw uploads.
type Pipeline struct {
	storage   Storage
	covers    Covers
	optimizer imaging.Optimizer
	pages     Revalidator
}

// NewPipeline wires the pipeline. pages may be nil.
func NewPipeline(s Storage, c Covers, o imaging.Optimizer, pages Revalidator) *Pipeline {
	return &Pipeline{storage: s, covers: c, optimizer: o, pages: pages}
}

// Run downloads the raw object, optimizes it, writes the result to the
// public bucket and repoints covers from the raw name to the derived one.
// Reruns with the same event overwrite the same derived object.
func (p *Pipeline) Run(ctx context.Context, ev Event) (Outcome, error) {
	if ev.Name == "" || ev.Bucket == "" {
		return Outcome{}, ErrMissingObject
	}
	if ev.Bucket != p.storage.RawBucket() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrWrongBucket, ev.Bucket)
	}

	raw, err := p.storage.Download(ctx, ev.Bucket, ev.Name)
	if err != nil {
		return Outcome{}, fmt.Errorf("download %s: %w", ev.Name, err)
	}

	res, err := p.optimizer.Optimize(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("optimize %s: %w", ev.Name, err)
	}

	derived := DerivedName(ev.Name, res.Extension)
	if err := p.storage.PutObject(ctx, p.storage.PublicBucket(), derived, res.ContentType, res.Data, true); err != nil {
		return Outcome{}, fmt.Errorf("upload %s: %w", derived, err)
	}

	changed, err := p.covers.RepointCover(ctx, ev.Name, derived)
	if err != nil {
		return Outcome{}, fmt.Errorf("repoint %s: %w", ev.Name, err)
	}
	p.revalidate(ctx, changed)

	slog.Info("cover image optimized",
		"raw", ev.Name,
		"optimized", derived,
		"bytes_in", len(raw),
		"bytes_out", len(res.Data),
		"width", res.Width,
		"height", res.Height,
		"posts", len(changed),
	)
	return Outcome{Optimized: derived, Updated: int64(len(changed))}, nil
}

// revalidate drops the cached list and detail pages of every published
// row whose cover changed. Drafts are never cached.
func (p *Pipeline) revalidate(ctx context.Context, changed []models.Post) {
	if p.pages == nil {
		return
	}
	seen := make(map[string]bool)
	var paths []string
	for _, post := range changed {
		for _, path := range publish.Revalidations(post.Locale, post.Slug, "", post.Status, post.Status) {
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}
	if len(paths) > 0 {
		p.pages.InvalidatePaths(ctx, paths...)
	}
}

// DerivedName keeps name up to its first dot and appends ext, so
// "photo.final.png" becomes "photo.webp".
func DerivedName(name, ext string) string {
	base, _, _ := strings.Cut(name, ".")
	return base + "." + ext
}

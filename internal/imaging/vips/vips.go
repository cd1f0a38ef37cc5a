// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package vips is the libvips-backed Optimizer producing WebP. It lives
// apart from package imaging so that only binaries choosing it link
// against libvips.
package vips

import (
	"fmt"
	"log/slog"

	"github.com/davidbyttow/govips/v2/vips"

	"postflow/internal/imaging"
)

// Startup initialises the libvips library. Call once at application start.
// concurrency controls the number of libvips worker threads (0 = auto).
func Startup(concurrency int) {
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024,
	})
	slog.Info("libvips started", "version", vips.Version)
}

// Shutdown releases libvips resources. Call at application shutdown.
func Shutdown() {
	vips.Shutdown()
}

// Optimizer encodes WebP through libvips. Startup must have been called.
type Optimizer struct{}

func (Optimizer) Optimize(raw []byte) (imaging.Result, error) {
	if err := imaging.CheckPixels(raw); err != nil {
		return imaging.Result{}, err
	}

	// SizeDown shrinks to fit the box and never enlarges.
	img, err := vips.NewThumbnailWithSizeFromBuffer(raw, imaging.MaxDimension, imaging.MaxDimension,
		vips.InterestingNone, vips.SizeDown)
	if err != nil {
		return imaging.Result{}, fmt.Errorf("vips: thumbnail: %w", err)
	}
	defer img.Close()

	// Auto-rotate based on EXIF orientation, then strip metadata.
	if err := img.AutoRotate(); err != nil {
		return imaging.Result{}, fmt.Errorf("vips: autorotate: %w", err)
	}

	params := vips.NewWebpExportParams()
	params.Quality = imaging.Quality
	params.Lossless = false
	params.StripMetadata = true

	buf, meta, err := img.ExportWebp(params)
	if err != nil {
		return imaging.Result{}, fmt.Errorf("vips: export: %w", err)
	}

	return imaging.Result{
		Data:        buf,
		Width:       meta.Width,
		Height:      meta.Height,
		Extension:   "webp",
		ContentType: "image/webp",
	}, nil
}

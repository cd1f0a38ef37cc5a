// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging downsizes and re-encodes uploaded cover images for the
// web. Images are fitted inside a MaxDimension square keeping their aspect
// ratio; smaller images are never upscaled.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Raw uploads are commonly WebP; register its decoder for image.Decode.
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds both width and height of the output.
	MaxDimension = 800

	// Quality is the lossy encoder quality (1-100).
	Quality = 80

	// MaxPixels rejects decompression bombs before a full decode.
	MaxPixels = 50_000_000
)

// ErrTooLarge is returned for images above MaxPixels.
var ErrTooLarge = errors.New("imaging: image exceeds pixel limit")

// Result is one optimized image ready for upload.
type Result struct {
	Data        []byte
	Width       int
	Height      int
	Extension   string // without the dot, e.g. "webp"
	ContentType string
}

// Optimizer turns raw image bytes into a web-ready encoding.
type Optimizer interface {
	Optimize(raw []byte) (Result, error)
}

// CheckPixels reads only the image header and rejects images above
// MaxPixels. Formats the standard decoders do not know pass through, for
// encoders that read more formats than Go does.
func CheckPixels(raw []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

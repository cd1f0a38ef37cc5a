// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Builtin is a pure-Go Optimizer producing JPEG. It needs no system
// libraries and is used where libvips is not installed.
type Builtin struct{}

func (Builtin) Optimize(raw []byte) (Result, error) {
	if err := CheckPixels(raw); err != nil {
		return Result{}, err
	}

	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("imaging: decode: %w", err)
	}

	// Fit returns a copy without resampling when src already fits.
	img := imaging.Fit(src, MaxDimension, MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return Result{}, fmt.Errorf("imaging: encode: %w", err)
	}

	b := img.Bounds()
	return Result{
		Data:        buf.Bytes(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Extension:   "jpg",
		ContentType: "image/jpeg",
	}, nil
}

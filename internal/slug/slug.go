// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// separators matches whitespace and underscore runs.
	separators = regexp.MustCompile(`[\s_]+`)
	// disallowed matches anything outside the slug alphabet.
	disallowed = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// valid matches a finished slug.
	valid = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// StripMarks decomposes s (NFD) and drops combining marks, so "é" becomes
// "e". Characters without a decomposition pass through unchanged.
func StripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate creates a URL-friendly slug from the given string.
// Example: "Fé e Recomeço" → "fe-e-recomeco"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(StripMarks(s)))
	result = separators.ReplaceAllString(result, "-")
	result = disallowed.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Valid reports whether s is a non-empty slug as produced by Generate.
func Valid(s string) bool {
	return valid.MatchString(s)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"postflow/internal/slug"
)

// publicPath is the URL path prefix under which public objects are served.
const publicPath = "/storage/v1/object/public/"

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[\s_]+`)
)

// UniqueKey derives a storage key from an uploaded file name: the sanitized
// base name, a millisecond timestamp, and the lowercased extension.
// "Foto da Capa.JPG" at 1700000000000 → "foto-da-capa-1700000000000.jpg".
func UniqueKey(name string, now time.Time) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	base = slug.StripMarks(base)
	base = nonWord.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	base = separators.ReplaceAllString(base, "-")
	base = strings.ToLower(base)
	if base == "" {
		base = "image"
	}

	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + strings.ToLower(ext)
}

// PublicURL returns the serving URL for a key in the public bucket.
func (c *Client) PublicURL(key string) string {
	if u, ok := c.ResolvePublicURL(key); ok {
		return u
	}
	return c.endpoint + "/" + c.publicBucket + "/" + key
}

// ResolvePublicURL turns a stored cover value into a URL. Absolute URLs
// are returned unchanged. Relative values are composed against the public
// base: "bucket/key" keeps its bucket, a bare key uses the public bucket.
// Returns false for an empty value or when no public base is configured.
func (c *Client) ResolvePublicURL(stored string) (string, bool) {
	v := strings.TrimSpace(stored)
	if v == "" {
		return "", false
	}
	if isAbsolute(v) {
		return v, true
	}
	if c.publicBase == "" {
		return "", false
	}

	normalized := strings.TrimLeft(v, "/")
	if !strings.Contains(normalized, "/") {
		normalized = c.publicBucket + "/" + normalized
	}
	return c.publicBase + publicPath + normalized, true
}

// ExtractStorageKey is the inverse of URL composition: it finds the
// "/{publicBucket}/" segment in the URL path and returns the decoded key
// after it. Externally hosted URLs return false.
func (c *Client) ExtractStorageKey(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	path := u.EscapedPath()
	marker := "/" + c.publicBucket + "/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		return "", false
	}

	key, err := url.PathUnescape(path[idx+len(marker):])
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// OwnedKey returns the public bucket key a stored cover value points at,
// for URLs and relative values alike. Values that point elsewhere (another
// bucket, an external host) return false and must never be deleted.
func (c *Client) OwnedKey(stored string) (string, bool) {
	v := strings.TrimSpace(stored)
	if v == "" {
		return "", false
	}
	if isAbsolute(v) {
		return c.ExtractStorageKey(v)
	}

	v = strings.TrimLeft(v, "/")
	bucket, key, found := strings.Cut(v, "/")
	if !found {
		return v, true
	}
	if bucket != c.publicBucket || key == "" {
		return "", false
	}
	return key, true
}

func isAbsolute(v string) bool {
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

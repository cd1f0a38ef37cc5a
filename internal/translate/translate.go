// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package translate provides clients for external text translation APIs.
// Each client implements Translator; New selects one by name.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"postflow/internal/models"
)

// Translator translates one piece of text between two locales.
type Translator interface {
	// Translate returns text rendered in target. Empty input returns ""
	// without calling the API.
	Translate(ctx context.Context, text string, format Format, source, target models.Locale) (string, error)

	// Name returns the provider identifier (e.g., "google", "openai").
	Name() string
}

// Format tells the provider how to treat the input.
type Format string

const (
	// FormatText is plain text such as a title. The result is plain text,
	// never entity-escaped.
	FormatText Format = "text"
	// FormatHTML is markup whose tags must survive translation.
	FormatHTML Format = "html"
)

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New returns the translator called name, configured from cfg.
func New(name string, cfg ProviderConfig) (Translator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("translate: no API key configured for %q", name)
	}
	switch name {
	case "google":
		return newGoogle(cfg), nil
	case "openai":
		return newOpenAI(cfg), nil
	}
	return nil, fmt.Errorf("translate: unknown provider %q", name)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// isBlank reports whether text has nothing worth translating.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// snippet shortens an error body for logs.
func snippet(b []byte) string {
	const max = 300
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

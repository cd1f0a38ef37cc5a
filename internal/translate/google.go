// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"postflow/internal/models"
)

// googleProvider implements Translator using the Google Cloud Translation
// v2 REST API (POST /language/translate/v2).
type googleProvider struct {
	config ProviderConfig
	client *http.Client
}

func newGoogle(cfg ProviderConfig) *googleProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://translation.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &googleProvider{config: cfg, client: newHTTPClient()}
}

func (p *googleProvider) Name() string { return "google" }

// Translate sends one text to the v2 endpoint. format is passed through:
// "html" keeps markup intact, "text" keeps the API from entity-escaping
// plain fields.
func (p *googleProvider) Translate(ctx context.Context, text string, format Format, source, target models.Locale) (string, error) {
	if isBlank(text) {
		return "", nil
	}

	payload, err := json.Marshal(googleRequest{
		Q:      text,
		Source: string(source),
		Target: string(target),
		Format: string(format),
	})
	if err != nil {
		return "", fmt.Errorf("google marshal: %w", err)
	}

	endpoint := p.config.BaseURL + "/language/translate/v2?key=" + url.QueryEscape(p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("google request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("google read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google API error (status %d): %s", resp.StatusCode, snippet(respBody))
	}

	var result googleResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("google unmarshal: %w", err)
	}
	if len(result.Data.Translations) == 0 {
		return "", fmt.Errorf("google: no translations returned")
	}

	return result.Data.Translations[0].TranslatedText, nil
}

type googleRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format,omitempty"`
}

type googleResponse struct {
	Data struct {
		Translations []googleTranslation `json:"translations"`
	} `json:"data"`
}

type googleTranslation struct {
	TranslatedText string `json:"translatedText"`
}

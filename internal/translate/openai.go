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
	"strings"

	"postflow/internal/models"
)

var localeNames = map[models.Locale]string{
	models.LocalePT: "Portuguese",
	models.LocaleEN: "English",
	models.LocaleES: "Spanish",
}

// openAIProvider translates through an OpenAI-compatible chat completions
// API (POST /chat/completions). Mistral and most self-hosted gateways speak
// the same format.
type openAIProvider struct {
	config ProviderConfig
	client *http.Client
}

func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &openAIProvider{config: cfg, client: newHTTPClient()}
}

func (p *openAIProvider) Name() string { return "openai" }

func systemPrompt(format Format, source, target models.Locale) string {
	keep := "The text is plain text; do not add markup or HTML entities."
	if format == FormatHTML {
		keep = "Keep every HTML tag and attribute exactly as given."
	}
	return fmt.Sprintf(
		"Translate the user's text from %s to %s. %s "+
			"Reply with the translation only, no commentary and no code fences.",
		localeNames[source], localeNames[target], keep,
	)
}

// Translate asks the model for a translation of text.
func (p *openAIProvider) Translate(ctx context.Context, text string, format Format, source, target models.Locale) (string, error) {
	if isBlank(text) {
		return "", nil
	}

	payload, err := json.Marshal(openAIRequest{
		Model: p.config.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt(format, source, target)},
			{Role: "user", Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, snippet(respBody))
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("openai unmarshal: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

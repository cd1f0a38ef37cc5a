// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates an empty database with a single Portuguese draft so the
// admin has something to open in development. It never publishes: a
// published post needs a cover image.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return fmt.Errorf("seed check posts: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO posts (slug, title, excerpt, content_html, locale, status)
		VALUES ($1, $2, $3, $4, 'pt', 'draft')
		ON CONFLICT (slug, locale) DO NOTHING
	`, "bem-vindo", "Bem-vindo", "Primeiro rascunho.", "<p>Edite este rascunho no painel.</p>")
	if err != nil {
		return fmt.Errorf("seed insert post: %w", err)
	}

	slog.Info("database seeded with a welcome draft", "slug", "bem-vindo")
	return nil
}

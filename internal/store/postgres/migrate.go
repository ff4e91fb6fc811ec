package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations are applied in order, each exactly once, tracked in schema_version.
var migrations = []migration{ //nolint:gochecknoglobals // ordered schema history
	{
		Version:     1,
		Description: "users and bookmarks",
		SQL: `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			name          TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'reader',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id           UUID PRIMARY KEY,
			user_id      UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			article_id   TEXT NOT NULL,
			headline     TEXT NOT NULL,
			summary      TEXT NOT NULL DEFAULT '',
			source       TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL,
			image_url    TEXT,
			published_at TIMESTAMPTZ NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, url)
		);
		CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created ON bookmarks(user_id, created_at DESC);
		`,
	},
	{
		Version:     2,
		Description: "analysis report cache",
		SQL: `
		CREATE TABLE IF NOT EXISTS analysis_reports (
			article_id  TEXT PRIMARY KEY,
			article_url TEXT NOT NULL,
			headline    TEXT NOT NULL,
			report      JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		`,
	},
}

// Migrate brings the schema up to the latest version.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("postgres.Migrate: create schema_version: %w", err)
	}

	var current int
	err = s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
	if err != nil {
		return fmt.Errorf("postgres.Migrate: read version: %w", err)
	}

	for _, m := range pending(current) {
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, execErr := tx.Exec(ctx, m.SQL); execErr != nil {
				return execErr
			}
			_, execErr := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version)
			return execErr
		})
		if err != nil {
			return fmt.Errorf("postgres.Migrate: v%d (%s): %w", m.Version, m.Description, err)
		}
		log.Info().Int("version", m.Version).Str("description", m.Description).Msg("schema migration applied")
	}

	return nil
}

// pending returns the migrations newer than current, in order.
func pending(current int) []migration {
	var out []migration
	for _, m := range migrations {
		if m.Version > current {
			out = append(out, m)
		}
	}
	return out
}

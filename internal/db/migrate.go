package db

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS question_groups (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		question_count INT NOT NULL DEFAULT 10,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id BIGSERIAL PRIMARY KEY,
		group_id BIGINT NOT NULL REFERENCES question_groups(id),
		question_type TEXT NOT NULL,
		question_text TEXT NOT NULL,
		question_text_en TEXT,
		options JSONB NOT NULL DEFAULT '[]'::jsonb,
		options_en JSONB NOT NULL DEFAULT '[]'::jsonb,
		answer_index INT NOT NULL DEFAULT 0,
		answer_text TEXT,
		answer_text_en TEXT,
		explanation TEXT,
		explanation_en TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_group_id ON questions(group_id)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		id INT PRIMARY KEY,
		timer_enabled BOOLEAN NOT NULL DEFAULT false,
		timer_seconds INT NOT NULL DEFAULT 600,
		grading_mode TEXT NOT NULL DEFAULT 'immediate',
		show_correct_on_wrong BOOLEAN NOT NULL DEFAULT true,
		theme TEXT,
		language TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		user_email TEXT,
		group_id BIGINT NOT NULL,
		group_name TEXT,
		correct INT NOT NULL,
		total INT NOT NULL,
		score_rate DOUBLE PRECISION NOT NULL,
		details JSONB NOT NULL DEFAULT '[]'::jsonb,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_group_id ON submissions(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at DESC)`,
}

// Migrate applies the schema. Every statement is idempotent so it runs
// unconditionally at startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

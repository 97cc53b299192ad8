package database

import (
	"context"
	"database/sql"
	"fmt"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// schema is applied in order on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id                TEXT PRIMARY KEY,
		student_id        TEXT NOT NULL UNIQUE,
		full_name         TEXT NOT NULL,
		email             TEXT NOT NULL,
		course            TEXT NOT NULL,
		semester          TEXT NOT NULL DEFAULT '',
		section           TEXT NOT NULL DEFAULT '',
		face_data         JSONB NOT NULL DEFAULT '{}',
		registration_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_students_course ON students (course)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id         TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		full_name  TEXT NOT NULL,
		course     TEXT NOT NULL,
		date       TIMESTAMPTZ NOT NULL,
		time       TEXT NOT NULL,
		day        TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (student_id, day)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance (date)`,
	`CREATE TABLE IF NOT EXISTS embeddings (
		id           TEXT PRIMARY KEY,
		embeddings   JSONB NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id          TEXT PRIMARY KEY,
		code        TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		instructor  TEXT NOT NULL,
		description TEXT NOT NULL,
		status      TEXT NOT NULL,
		students    INTEGER NOT NULL DEFAULT 0,
		duration    TEXT NOT NULL,
		progress    INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS admin_settings (
		id           TEXT PRIMARY KEY,
		admin_id     TEXT NOT NULL UNIQUE,
		preferences  JSONB NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		last_login    TIMESTAMPTZ,
		last_logout   TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS export_jobs (
		id            TEXT PRIMARY KEY,
		report        TEXT NOT NULL,
		params        JSONB NOT NULL,
		status        TEXT NOT NULL,
		progress      INTEGER NOT NULL DEFAULT 0,
		result_url    TEXT,
		created_by    TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		finished_at   TIMESTAMPTZ,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_export_jobs_status ON export_jobs (status, created_at)`,
}

// Migrate creates the tables the repositories expect.
func Migrate(ctx context.Context, db execer) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

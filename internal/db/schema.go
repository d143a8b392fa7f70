package db

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the question bank tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = schemaSQLite
	case DriverPostgres:
		stmts = schemaPostgres
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var schemaSQLite = []string{
	`PRAGMA foreign_keys=ON`,
	`CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_type TEXT NOT NULL,
		question_text TEXT NOT NULL,
		topic TEXT NOT NULL,
		subtopic TEXT,
		explanation TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS options (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		option_text TEXT NOT NULL,
		is_correct INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS match_pairs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		left_text TEXT NOT NULL,
		right_text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_options_question ON options(question_id)`,
	`CREATE INDEX IF NOT EXISTS idx_match_pairs_question ON match_pairs(question_id)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS questions (
		id BIGSERIAL PRIMARY KEY,
		question_type TEXT NOT NULL,
		question_text TEXT NOT NULL,
		topic TEXT NOT NULL,
		subtopic TEXT,
		explanation TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS options (
		id BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		option_text TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS match_pairs (
		id BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		left_text TEXT NOT NULL,
		right_text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_options_question ON options(question_id)`,
	`CREATE INDEX IF NOT EXISTS idx_match_pairs_question ON match_pairs(question_id)`,
}

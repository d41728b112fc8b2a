// Package sqlite implements the repository interfaces on SQLite via the pure
// Go modernc.org/sqlite driver. One DB pool is shared by the per-entity repo
// types; sql.DB is safe for concurrent use, so a single DB serves the whole
// process.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	// foreign_keys is a per-connection pragma, so it must travel in the
	// DSN: the pool opens and recycles connections at will, and a plain
	// Exec would leave every later connection without FK enforcement
	// (and without the review/media cascade on recipe deletion).
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL persists in the database file, so once is enough. It allows
	// concurrent reads while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Call on shutdown to flush the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	statements := []string{`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			image      TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT 'USER',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email) WHERE email != '';
	`, `
		CREATE TABLE IF NOT EXISTS recipes (
			id          TEXT PRIMARY KEY,
			slug        TEXT NOT NULL UNIQUE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content     TEXT,
			ingredients TEXT NOT NULL DEFAULT '[]',
			steps       TEXT NOT NULL DEFAULT '[]',
			nutrition   TEXT,
			cook_time   INTEGER NOT NULL DEFAULT 0,
			prep_time   INTEGER NOT NULL DEFAULT 0,
			servings    INTEGER NOT NULL DEFAULT 1,
			video       TEXT NOT NULL DEFAULT '',
			author_id   TEXT REFERENCES users(id),
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at);
	`, `
		CREATE TABLE IF NOT EXISTS categories (
			id          TEXT PRIMARY KEY,
			slug        TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			public_id   TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
	`, `
		CREATE TABLE IF NOT EXISTS recipe_categories (
			recipe_id   TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (recipe_id, category_id)
		);
	`, `
		CREATE TABLE IF NOT EXISTS reviews (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			recipe_id  TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (user_id, recipe_id)
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_recipe_id ON reviews(recipe_id);
	`, `
		CREATE TABLE IF NOT EXISTS media (
			id          TEXT PRIMARY KEY,
			recipe_id   TEXT REFERENCES recipes(id) ON DELETE CASCADE,
			category_id TEXT REFERENCES categories(id) ON DELETE CASCADE,
			url         TEXT NOT NULL,
			public_id   TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL CHECK (type IN ('IMAGE', 'VIDEO')),
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_media_recipe_id ON media(recipe_id);
	`}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// nullIfEmpty maps "" to NULL so optional foreign keys stay consistent.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// placeholders returns "?, ?, …" with n entries, for IN clauses.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	out := make([]byte, 0, 3*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, '?')
	}
	return string(out)
}

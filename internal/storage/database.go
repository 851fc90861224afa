// Package storage is the persistence boundary: users and credentials, the
// single-slot plan table, and the append-only conversation history, all in one
// sqlite database file.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound         = errors.New("storage: not found")
	ErrUsernameExists   = errors.New("storage: username already exists")
	ErrRevisionConflict = errors.New("storage: plan revision conflict")
)

// Store wraps the sqlite handle. A failure to open or migrate is fatal to the
// caller; nothing can proceed without durable state.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: connect %s: %w", path, err)
	}
	// Single-session design; one writer avoids SQLITE_BUSY on shared statements.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL,
			age           INTEGER NOT NULL,
			height_cm     REAL NOT NULL,
			weight_kg     REAL NOT NULL,
			activity_level     TEXT NOT NULL,
			fitness_goal       TEXT NOT NULL,
			dietary_preference TEXT NOT NULL,
			blood_group   TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			user_id      TEXT NOT NULL,
			kind         TEXT NOT NULL,
			revision     INTEGER NOT NULL,
			body         TEXT NOT NULL,
			last_updated TEXT NOT NULL,
			PRIMARY KEY (user_id, kind),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			role       TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("storage: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

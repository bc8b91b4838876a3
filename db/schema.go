// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/watchroom/cliparse"
)

// Open connects to the configured database and verifies the connection.
func Open(cfg cliparse.Config) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch cfg.DatabaseType {
	case cliparse.DatabasePostgres:
		conn, err = sql.Open("postgres", cfg.DatabaseURL)
	case cliparse.DatabaseSQLite:
		conn, err = sql.Open("sqlite", sqliteDSN(cfg.DatabaseURL))
		if err == nil {
			// One writer at a time; also keeps :memory: databases on a single connection
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func sqliteDSN(url string) string {
	if strings.Contains(url, "_pragma=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	serial := "BIGSERIAL PRIMARY KEY"
	if dbType == cliparse.DatabaseSQLite {
		// AUTOINCREMENT keeps ids from being reused after rows are deleted
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	for _, stmt := range strings.Split(strings.ReplaceAll(schema, "{{serial}}", serial), ";\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint, for either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: PRIMARY KEY")
}

const schema = `
-- Users
CREATE TABLE IF NOT EXISTS users (
    id {{serial}},
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'junior-admin', 'admin', 'senior-admin', 'creator')),
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    is_chat_muted BOOLEAN NOT NULL DEFAULT FALSE,
    is_online BOOLEAN NOT NULL DEFAULT FALSE,
    last_seen TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

-- Chat messages (username and role are snapshots taken at send time)
CREATE TABLE IF NOT EXISTS messages (
    id {{serial}},
    user_id BIGINT NOT NULL REFERENCES users(id),
    username TEXT NOT NULL,
    role TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_user_id ON messages(user_id);

-- Global chat switch (single row)
CREATE TABLE IF NOT EXISTS chat_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMP
);

INSERT INTO chat_settings (id, enabled) VALUES (1, TRUE) ON CONFLICT (id) DO NOTHING;

-- Video history; the newest row is the current video
CREATE TABLE IF NOT EXISTS videos (
    id {{serial}},
    title TEXT NOT NULL,
    vk_url TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    changed_by BIGINT REFERENCES users(id),
    created_at TIMESTAMP NOT NULL
);

-- Polls
CREATE TABLE IF NOT EXISTS polls (
    id {{serial}},
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_by BIGINT REFERENCES users(id),
    created_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP
);

-- At most one active poll
CREATE UNIQUE INDEX IF NOT EXISTS idx_polls_single_active ON polls(is_active) WHERE is_active;

CREATE TABLE IF NOT EXISTS poll_options (
    id {{serial}},
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    vk_url TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0)
);

CREATE INDEX IF NOT EXISTS idx_poll_options_poll_id ON poll_options(poll_id);

-- One vote per identity per poll
CREATE TABLE IF NOT EXISTS poll_votes (
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(id),
    option_id BIGINT NOT NULL REFERENCES poll_options(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (poll_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_poll_votes_option_id ON poll_votes(option_id);
`

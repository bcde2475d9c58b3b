// Package store provides SQLite-backed connection audit records: which
// usernames have been seen, when, and how each connection ended. It is
// operational bookkeeping only; the server core never reads from it and
// keeps running if writes fail.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Store provides database access for audit records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	ctx := context.Background()

	// WAL for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set WAL: %w", err)
	}
	// Avoid "database is locked" under concurrent handler goroutines
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS seen_users (
		username    TEXT    PRIMARY KEY CHECK(length(username) > 0 AND length(username) <= 32),
		first_seen  TEXT    NOT NULL DEFAULT (datetime('now')),
		last_seen   TEXT    NOT NULL DEFAULT (datetime('now')),
		login_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS connection_log (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		username        TEXT    NOT NULL,
		remote_addr     TEXT    NOT NULL DEFAULT '',
		connected_at    TEXT    NOT NULL DEFAULT (datetime('now')),
		disconnected_at TEXT,
		close_reason    TEXT    NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_connection_log_username ON connection_log(username);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

// SeenUser is one row of the username audit.
type SeenUser struct {
	Username   string
	FirstSeen  time.Time
	LastSeen   time.Time
	LoginCount int
}

// RecordLogin notes a successful LOGIN and returns the connection log entry
// ID for the matching RecordDisconnect call.
func (s *Store) RecordLogin(username, remoteAddr string) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO seen_users (username, login_count) VALUES (?, 1)
		ON CONFLICT(username) DO UPDATE SET
			last_seen = datetime('now'),
			login_count = login_count + 1`,
		username)
	if err != nil {
		return 0, fmt.Errorf("store: record seen user: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO connection_log (username, remote_addr) VALUES (?, ?)`,
		username, remoteAddr)
	if err != nil {
		return 0, fmt.Errorf("store: record login: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: record login id: %w", err)
	}
	return id, nil
}

// RecordDisconnect closes a connection log entry with the end reason.
// No-op for unknown IDs.
func (s *Store) RecordDisconnect(logID int64, reason string) error {
	_, err := s.db.Exec(`
		UPDATE connection_log
		SET disconnected_at = datetime('now'), close_reason = ?
		WHERE id = ? AND disconnected_at IS NULL`,
		reason, logID)
	if err != nil {
		return fmt.Errorf("store: record disconnect: %w", err)
	}
	return nil
}

// ListSeen returns the username audit ordered by username.
func (s *Store) ListSeen() ([]SeenUser, error) {
	rows, err := s.db.Query(
		`SELECT username, first_seen, last_seen, login_count FROM seen_users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("store: list seen: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []SeenUser
	for rows.Next() {
		var u SeenUser
		var first, last string
		if err := rows.Scan(&u.Username, &first, &last, &u.LoginCount); err != nil {
			return nil, fmt.Errorf("store: scan seen: %w", err)
		}
		u.FirstSeen, _ = time.Parse(dbTimeLayout, first)
		u.LastSeen, _ = time.Parse(dbTimeLayout, last)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list seen: %w", err)
	}
	return users, nil
}

package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with turnguard-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Each new connection would get its own private memory database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    fallback_level INTEGER NOT NULL DEFAULT 0 CHECK(fallback_level BETWEEN 0 AND 4),
    consecutive_failed_checks INTEGER NOT NULL DEFAULT 0,
    ambiguity_threshold REAL NOT NULL DEFAULT 0.35,
    open_decisions TEXT NOT NULL DEFAULT '[]',
    resolved_decisions TEXT NOT NULL DEFAULT '[]',
    carried_assumptions TEXT NOT NULL DEFAULT '[]',
    suspended_state TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

CREATE TABLE IF NOT EXISTS turns (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    seq INTEGER NOT NULL,
    task TEXT NOT NULL,
    complexity TEXT NOT NULL CHECK(complexity IN ('simple','complex')),
    mode TEXT NOT NULL,
    ambiguity_score REAL NOT NULL,
    pqs_overall REAL NOT NULL,
    fallback_level INTEGER NOT NULL,
    safety_verdict TEXT NOT NULL,
    emitted INTEGER NOT NULL DEFAULT 1,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    UNIQUE(session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);

CREATE TABLE IF NOT EXISTS audit_entries (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL DEFAULT (datetime('now')),
    turn_id TEXT NOT NULL,
    session_id TEXT NOT NULL DEFAULT '',
    module TEXT NOT NULL,
    decision TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    safety_verdict TEXT NOT NULL DEFAULT '',
    fallback_level INTEGER NOT NULL DEFAULT 0,
    quality_overall REAL NOT NULL DEFAULT 0,
    emitted INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_turn ON audit_entries(turn_id);
CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_entries(session_id);
`

// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Learning database patterns without infrastructure complexity
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// SQL INJECTION (OWASP A03):
// Every query in this package uses ? placeholders. User input is NEVER
// concatenated into SQL text — the driver sends parameters separately from
// the statement, so a value like "x'; DROP TABLE users;--" is just a string.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import. The sqlite
	// package's init() registers itself with database/sql as a driver named
	// "sqlite". After this import, sql.Open("sqlite", ...) knows how to talk
	// to SQLite. This is Go's plugin pattern for database drivers.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
//
// WHY WRAP sql.DB IN A STRUCT?
// 1. We can attach methods to it (Create, GetByEmail, etc.)
// 2. We can add more fields later (logger, prepared statements)
// 3. It implements repository.UserRepository
// 4. We control the lifecycle (New creates it, Close destroys it)
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/users.db"  → file-based database (persistent)
//   - ":memory:"       → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping verifies the connection actually works. Without this, a bad path
	// or permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode:
	// Default SQLite locks the entire database during writes. WAL allows
	// concurrent reads WHILE a write is happening — important for a web
	// server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema.
//
// THE UNIQUE CONSTRAINT IS THE CORRECTNESS GUARANTEE:
// email is UNIQUE COLLATE NOCASE. Two concurrent registrations for the same
// address cannot both succeed — whichever INSERT lands second fails with a
// constraint violation, which Create maps to a duplicate-registration error.
// An application-level "check then insert" can never provide this guarantee
// on its own (the race window between check and insert).
//
// For a learning project, embedding SQL as string constants is fine. In
// production you'd use a migration tool like golang-migrate that tracks
// which migrations have run.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}

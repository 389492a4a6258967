package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS quick_responses (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	original_message TEXT NOT NULL,
	response         TEXT NOT NULL,
	timestamp        DATETIME NOT NULL,
	status           TEXT NOT NULL,
	received_at      DATETIME
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	start_time DATETIME
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT,
	role       TEXT,
	text       TEXT,
	timestamp  DATETIME,
	FOREIGN KEY(session_id) REFERENCES sessions(id)
);`

// Open opens the SQLite database and creates the schema. A shared in-memory
// DSN keeps everything process-local.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Shared-cache in-memory databases lock per connection; one writer is enough here.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Package index provides a SQLite-backed link graph over the vault: the
// resolved-links mapping and first-linkpath-destination lookups consumed by
// the query engine, plus the sync and watch loops that keep it current.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attachments (
	path TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS aliases (
	alias TEXT NOT NULL,
	path  TEXT NOT NULL,
	UNIQUE(alias, path)
);

CREATE INDEX IF NOT EXISTS idx_aliases_path ON aliases(path);

CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	count  INTEGER NOT NULL DEFAULT 1,
	UNIQUE(source, target)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB

	// The resolver over the current path set is built lazily and dropped on
	// every write. gen guards against storing a resolver built before a write.
	mu       sync.Mutex
	gen      uint64
	resolver *Resolver
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open(DriverName, dsn+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

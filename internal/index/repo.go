package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/starford/vaultlens/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path     string
	Checksum string
	// Aliases are the frontmatter aliases the note answers to.
	Aliases   []string
	UpdatedAt time.Time
}

// UpsertNote inserts or replaces a note with its raw outgoing links and its
// aliases within a transaction. links maps raw link targets to occurrence
// counts.
func (db *DB) UpsertNote(n NoteRow, links map[string]int) error {
	defer db.invalidate()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.Path, n.Checksum, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// Replace links: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO links (source, target, count) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for target, count := range links {
			if _, err := stmt.Exec(n.Path, target, count); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM aliases WHERE path = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear aliases: %w", err)
	}
	for _, a := range n.Aliases {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO aliases (alias, path) VALUES (?, ?)`, a, n.Path); err != nil {
			return fmt.Errorf("index: insert alias: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note with its outgoing links and aliases.
func (db *DB) DeleteNote(path string) error {
	defer db.invalidate()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM aliases WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete aliases: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ReplaceAttachments sets the non-Markdown vault files to exactly paths.
func (db *DB) ReplaceAttachments(paths []string) error {
	defer db.invalidate()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM attachments`); err != nil {
		return fmt.Errorf("index: clear attachments: %w", err)
	}
	if len(paths) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO attachments (path) VALUES (?)`)
		if err != nil {
			return fmt.Errorf("index: prepare attachment insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range paths {
			if _, err := stmt.Exec(p); err != nil {
				return fmt.Errorf("index: insert attachment: %w", err)
			}
		}
	}
	return tx.Commit()
}

// UpsertAttachment records a non-Markdown vault file.
func (db *DB) UpsertAttachment(path string) error {
	defer db.invalidate()
	if _, err := db.conn.Exec(`INSERT OR IGNORE INTO attachments (path) VALUES (?)`, path); err != nil {
		return fmt.Errorf("index: upsert attachment: %w", err)
	}
	return nil
}

// DeleteAttachment forgets a non-Markdown vault file.
func (db *DB) DeleteAttachment(path string) error {
	defer db.invalidate()
	if _, err := db.conn.Exec(`DELETE FROM attachments WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete attachment: %w", err)
	}
	return nil
}

func (db *DB) invalidate() {
	db.mu.Lock()
	db.gen++
	db.resolver = nil
	db.mu.Unlock()
}

// currentResolver returns the resolver over every indexed note and
// attachment, building it at most once between writes.
func (db *DB) currentResolver(ctx context.Context) (*Resolver, error) {
	db.mu.Lock()
	r, gen := db.resolver, db.gen
	db.mu.Unlock()
	if r != nil {
		return r, nil
	}

	r, err := db.buildResolver(ctx)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	if db.gen == gen {
		db.resolver = r
	}
	db.mu.Unlock()
	return r, nil
}

func (db *DB) buildResolver(ctx context.Context) (*Resolver, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT path FROM notes UNION SELECT path FROM attachments ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list paths: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	aliasRows, err := db.conn.QueryContext(ctx, `SELECT alias, path FROM aliases`)
	if err != nil {
		return nil, fmt.Errorf("index: list aliases: %w", err)
	}
	defer aliasRows.Close()
	aliases := make(map[string]string)
	for aliasRows.Next() {
		var a, p string
		if err := aliasRows.Scan(&a, &p); err != nil {
			return nil, err
		}
		if prev, ok := aliases[a]; !ok || p < prev {
			aliases[a] = p
		}
	}
	if err := aliasRows.Err(); err != nil {
		return nil, err
	}

	return NewResolver(paths, aliases), nil
}

// FirstLinkpathDest resolves linkpath from sourcePath against the indexed
// notes and attachments.
func (db *DB) FirstLinkpathDest(ctx context.Context, linkpath, sourcePath string) (models.Document, bool, error) {
	r, err := db.currentResolver(ctx)
	if err != nil {
		return models.Document{}, false, err
	}
	dest, ok := r.Resolve(linkpath, sourcePath)
	if !ok {
		return models.Document{}, false, nil
	}
	return models.NewDocument(dest), true, nil
}

// ResolvedLinks resolves every stored raw link against the current path set
// and returns source -> destination -> count. Unresolvable links are omitted.
func (db *DB) ResolvedLinks(ctx context.Context) (map[string]map[string]int, error) {
	resolver, err := db.currentResolver(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT source, target, count FROM links`)
	if err != nil {
		return nil, fmt.Errorf("index: resolved links: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var source, target string
		var count int
		if err := rows.Scan(&source, &target, &count); err != nil {
			return nil, err
		}
		dest, ok := resolver.Resolve(target, source)
		if !ok {
			continue
		}
		if out[source] == nil {
			out[source] = make(map[string]int)
		}
		out[source][dest] += count
	}
	return out, rows.Err()
}

// Sources returns the paths that hold at least one raw link, sorted.
func Sources(resolved map[string]map[string]int) []string {
	out := make([]string, 0, len(resolved))
	for s := range resolved {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Package storage defines the vault file-system abstraction.
package storage

import (
	"context"

	"github.com/starford/vaultlens/internal/models"
)

// FileStore is the read-only view of the vault consumed by the query engine.
// Enumeration order is significant: it drives early termination and
// suggestion tie-breaks.
type FileStore interface {
	// ListMarkdownFiles returns every Markdown document in the vault.
	ListMarkdownFiles(ctx context.Context) ([]models.Document, error)
	// ReadFile returns the text of a document.
	ReadFile(ctx context.Context, doc models.Document) (string, error)
	// Lookup resolves a vault path to an existing file of any type.
	Lookup(ctx context.Context, path string) (models.Document, bool)
}

// Provider is the full vault interface used by the index sync and watcher.
type Provider interface {
	FileStore
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.NoteMetadata, error)
	// ListAttachments returns the paths of every non-Markdown file.
	ListAttachments() ([]string, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
}

package index

import (
	"context"

	"github.com/starford/vaultlens/internal/models"
)

// LinkIndex is the link-graph collaborator consumed by the query engine.
// Implementations must be safe for concurrent use.
type LinkIndex interface {
	// ResolvedLinks maps source path -> destination path -> link count.
	ResolvedLinks(ctx context.Context) (map[string]map[string]int, error)
	// FirstLinkpathDest resolves a raw link target as seen from sourcePath.
	FirstLinkpathDest(ctx context.Context, linkpath, sourcePath string) (models.Document, bool, error)
}

// NoteIndex is the write side used by sync and the watcher.
type NoteIndex interface {
	LinkIndex
	UpsertNote(n NoteRow, links map[string]int) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ReplaceAttachments(paths []string) error
	UpsertAttachment(path string) error
	DeleteAttachment(path string) error
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)

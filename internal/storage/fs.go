package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/vaultlens/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to vault directory
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// walk visits every file under base in lexical order whose name
// passes keep, skipping hidden files and directories such as .obsidian or
// .git. Entries that cannot be read are logged and skipped.
func (f *FS) walk(base string, keep func(name string) bool, fn func(abs, rel string, d fs.DirEntry) error) error {
	return filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == base {
				return walkErr
			}
			slog.Warn("storage: skipping unreadable entry", slog.String("path", p), slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p != base && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !keep(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		return fn(p, filepath.ToSlash(rel), d)
	})
}

func isMarkdown(name string) bool { return strings.HasSuffix(name, ".md") }

// List walks dir (relative to root) and returns metadata for every .md file.
// Files that cannot be read are logged and left out.
func (f *FS) List(dir string) ([]models.NoteMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	out := make([]models.NoteMetadata, 0)
	err = f.walk(base, isMarkdown, func(abs, rel string, d fs.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			slog.Warn("storage: skipping unreadable note", slog.String("path", rel), slog.String("error", err.Error()))
			return nil
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			slog.Warn("storage: skipping unreadable note", slog.String("path", rel), slog.String("error", err.Error()))
			return nil
		}
		out = append(out, models.NoteMetadata{
			Path:      rel,
			Checksum:  checksum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// ListAttachments returns the vault paths of every non-Markdown file.
func (f *FS) ListAttachments() ([]string, error) {
	out := make([]string, 0)
	err := f.walk(f.root, func(name string) bool { return !isMarkdown(name) }, func(_, rel string, _ fs.DirEntry) error {
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list attachments: %w", err)
	}
	return out, nil
}

// ListMarkdownFiles returns a Document for every .md file in the vault.
func (f *FS) ListMarkdownFiles(ctx context.Context) ([]models.Document, error) {
	out := make([]models.Document, 0)
	err := f.walk(f.root, isMarkdown, func(_, rel string, _ fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out = append(out, models.NewDocument(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list markdown: %w", err)
	}
	return out, nil
}

// ReadFile returns the text of a vault document.
func (f *FS) ReadFile(_ context.Context, doc models.Document) (string, error) {
	data, err := f.Read(doc.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Lookup reports whether path names an existing regular file in the vault.
func (f *FS) Lookup(_ context.Context, path string) (models.Document, bool) {
	if path == "" {
		return models.Document{}, false
	}
	abs, err := f.safePath(path)
	if err != nil {
		return models.Document{}, false
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return models.Document{}, false
	}
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return models.Document{}, false
	}
	return models.NewDocument(filepath.ToSlash(rel)), true
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vaultlens-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the vault.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	return checksum(data)
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

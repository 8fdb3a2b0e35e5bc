// Package testutil provides shared test helpers for setting up vaults,
// databases and in-memory collaborators.
package testutil

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/starford/vaultlens/internal/index"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/parser"
	"github.com/starford/vaultlens/internal/storage"
)

// ErrUnreadable is returned by MemStore.ReadFile for paths marked unreadable.
var ErrUnreadable = errors.New("testutil: unreadable")

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vaultlens-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// MemStore is an in-memory FileStore that lists documents in insertion order.
type MemStore struct {
	mu         sync.RWMutex
	order      []string
	files      map[string]string
	unreadable map[string]bool
}

// NewMemStore creates a MemStore holding the given path/content pairs, added
// in the order listed: NewMemStore("a.md", "text", "b.md", "more").
func NewMemStore(pairs ...string) *MemStore {
	m := &MemStore{files: make(map[string]string), unreadable: make(map[string]bool)}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Add(pairs[i], pairs[i+1])
	}
	return m
}

// Add appends a document, or replaces its content if it already exists.
func (m *MemStore) Add(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		m.order = append(m.order, path)
	}
	m.files[path] = content
}

// FailRead makes every subsequent read of path fail with ErrUnreadable.
func (m *MemStore) FailRead(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreadable[path] = true
}

// ListMarkdownFiles implements storage.FileStore. Paths without a .md
// extension act as attachments: they resolve but are not listed.
func (m *MemStore) ListMarkdownFiles(ctx context.Context) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Document, 0, len(m.order))
	for _, p := range m.order {
		if strings.HasSuffix(p, ".md") {
			out = append(out, models.NewDocument(p))
		}
	}
	return out, nil
}

// ReadFile implements storage.FileStore.
func (m *MemStore) ReadFile(ctx context.Context, doc models.Document) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unreadable[doc.Path] {
		return "", ErrUnreadable
	}
	text, ok := m.files[doc.Path]
	if !ok {
		return "", os.ErrNotExist
	}
	return text, nil
}

// Lookup implements storage.FileStore.
func (m *MemStore) Lookup(ctx context.Context, path string) (models.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[path]; !ok {
		return models.Document{}, false
	}
	return models.NewDocument(path), true
}

var _ storage.FileStore = (*MemStore)(nil)

// MemIndex is an in-memory LinkIndex computed from a MemStore's content with
// the same resolution policy as the SQLite index.
type MemIndex struct {
	store *MemStore
	// Extra lets a test inject stale source -> destination edges.
	Extra map[string]map[string]int
}

// NewMemIndex creates a link index over store.
func NewMemIndex(store *MemStore) *MemIndex {
	return &MemIndex{store: store, Extra: make(map[string]map[string]int)}
}

func (x *MemIndex) resolver() *index.Resolver {
	x.store.mu.RLock()
	defer x.store.mu.RUnlock()
	paths := append([]string(nil), x.store.order...)
	sort.Strings(paths)
	aliases := make(map[string]string)
	for _, p := range paths {
		if !strings.HasSuffix(p, ".md") {
			continue
		}
		parsed, err := parser.Parse([]byte(x.store.files[p]))
		if err != nil {
			continue
		}
		for _, a := range parsed.Aliases {
			if _, ok := aliases[a]; !ok {
				aliases[a] = p
			}
		}
	}
	return index.NewResolver(paths, aliases)
}

// ResolvedLinks implements index.LinkIndex.
func (x *MemIndex) ResolvedLinks(ctx context.Context) (map[string]map[string]int, error) {
	r := x.resolver()
	out := make(map[string]map[string]int)

	x.store.mu.RLock()
	for _, src := range x.store.order {
		if !strings.HasSuffix(src, ".md") {
			continue
		}
		parsed, err := parser.Parse([]byte(x.store.files[src]))
		if err != nil {
			x.store.mu.RUnlock()
			return nil, err
		}
		for target, n := range parsed.LinkCounts {
			dest, ok := r.Resolve(target, src)
			if !ok {
				continue
			}
			if out[src] == nil {
				out[src] = make(map[string]int)
			}
			out[src][dest] += n
		}
	}
	x.store.mu.RUnlock()

	for src, dests := range x.Extra {
		if out[src] == nil {
			out[src] = make(map[string]int)
		}
		for d, n := range dests {
			out[src][d] += n
		}
	}
	return out, nil
}

// FirstLinkpathDest implements index.LinkIndex.
func (x *MemIndex) FirstLinkpathDest(ctx context.Context, linkpath, sourcePath string) (models.Document, bool, error) {
	dest, ok := x.resolver().Resolve(linkpath, sourcePath)
	if !ok {
		return models.Document{}, false, nil
	}
	return models.NewDocument(dest), true, nil
}

var _ index.LinkIndex = (*MemIndex)(nil)

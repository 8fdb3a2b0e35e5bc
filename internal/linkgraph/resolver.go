// Package linkgraph answers link questions about the vault: where a wikilink
// points, which notes point at a given note, and which links in a note are
// broken. Resolution policy lives in the LinkIndex; this package only
// composes it with the file store and the wikilink parser.
package linkgraph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/starford/vaultlens/internal/index"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/storage"
)

// DefaultSuggestions is the suggestion count used when max is not positive.
const DefaultSuggestions = 5

// Suggestion scores, highest first.
const (
	scoreExactName    = 100
	scoreNameContains = 50
	scorePathContains = 25
)

// Graph composes a FileStore and a LinkIndex. It keeps no state between
// calls.
type Graph struct {
	store  storage.FileStore
	links  index.LinkIndex
	logger *slog.Logger
}

// NewGraph creates a Graph.
func NewGraph(store storage.FileStore, links index.LinkIndex, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{store: store, links: links, logger: logger}
}

// ResolveLink returns the document target points at when written in
// sourcePath. A source that does not exist resolves nothing.
func (g *Graph) ResolveLink(ctx context.Context, sourcePath, target string) (models.Document, bool, error) {
	if _, ok := g.store.Lookup(ctx, sourcePath); !ok {
		return models.Document{}, false, nil
	}
	doc, ok, err := g.links.FirstLinkpathDest(ctx, target, sourcePath)
	if err != nil {
		return models.Document{}, false, fmt.Errorf("linkgraph: resolve %q: %w", target, err)
	}
	return doc, ok, nil
}

// FindSuggestions ranks vault documents by how well they match query and
// returns up to max paths.
func (g *Graph) FindSuggestions(ctx context.Context, query string, max int) ([]string, error) {
	docs, err := g.store.ListMarkdownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("linkgraph: list files: %w", err)
	}
	return Suggest(docs, query, max), nil
}

// Suggest ranks docs against query. A #heading or ^block suffix on query is
// ignored. Each candidate takes the first score that applies: exact name,
// name contains query, path contains query, or the number of query
// characters found anywhere in the name. Zero scores are dropped and ties
// keep enumeration order.
func Suggest(docs []models.Document, query string, max int) []string {
	if max <= 0 {
		max = DefaultSuggestions
	}
	if i := strings.IndexAny(query, "#^"); i >= 0 {
		query = query[:i]
	}
	q := strings.ToLower(query)

	type scored struct {
		path  string
		score int
	}
	ranked := make([]scored, 0, len(docs))
	for _, d := range docs {
		if s := score(d, q); s > 0 {
			ranked = append(ranked, scored{path: d.Path, score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.path
	}
	return out
}

func score(d models.Document, q string) int {
	name := strings.ToLower(d.Basename)
	switch {
	case name == q:
		return scoreExactName
	case strings.Contains(name, q):
		return scoreNameContains
	case strings.Contains(strings.ToLower(d.Path), q):
		return scorePathContains
	}
	n := 0
	for _, r := range q {
		if strings.ContainsRune(name, r) {
			n++
		}
	}
	return n
}

// Package queryservice is the entry point shared by the REST API, the MCP
// server and the CLI. It applies configured defaults and per-call timeouts,
// maps missing documents to apperr.ErrNotFound and records query metrics
// around the search and link-graph engines.
package queryservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/vaultlens/internal/apperr"
	"github.com/starford/vaultlens/internal/index"
	"github.com/starford/vaultlens/internal/linkgraph"
	"github.com/starford/vaultlens/internal/metrics"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/parser"
	"github.com/starford/vaultlens/internal/search"
	"github.com/starford/vaultlens/internal/storage"
)

// Limits holds the defaults applied to queries that leave them unset.
type Limits struct {
	MaxResults    int
	SnippetLength int
	// Timeout bounds each call. Zero disables the bound.
	Timeout time.Duration
}

// Service coordinates the file store, link index and query engines.
type Service struct {
	store  storage.FileStore
	engine *search.Engine
	graph  *linkgraph.Graph
	limits Limits
	logger *slog.Logger
}

// NewService creates a new query service.
func NewService(store storage.FileStore, links index.LinkIndex, limits Limits, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.MaxResults <= 0 {
		limits.MaxResults = models.DefaultMaxResults
	}
	if limits.SnippetLength <= 0 {
		limits.SnippetLength = models.DefaultSnippetLength
	}
	return &Service{
		store:  store,
		engine: search.NewEngine(store, logger),
		graph:  linkgraph.NewGraph(store, links, logger),
		limits: limits,
		logger: logger,
	}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.limits.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.limits.Timeout)
}

// Search runs a content and file-name search over the vault.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	defer metrics.ObserveQuery("search", time.Now())
	ctx, cancel := s.bound(ctx)
	defer cancel()
	log := s.logger.With(slog.String("query_id", uuid.NewString()))

	if q.MaxResults <= 0 {
		q.MaxResults = s.limits.MaxResults
	}
	if q.SnippetLength <= 0 {
		q.SnippetLength = s.limits.SnippetLength
	}
	res, err := s.engine.Search(ctx, q)
	if err != nil {
		log.Debug("search: failed", slog.String("query", q.Query), slog.String("error", err.Error()))
		return nil, err
	}
	metrics.SearchMatches.Add(float64(res.Stats.TotalMatches))
	metrics.FilesSearched.Add(float64(res.Stats.FilesSearched))
	log.Debug("search: done",
		slog.String("query", q.Query),
		slog.Int("matches", res.Stats.TotalMatches),
		slog.Int("files_searched", res.Stats.FilesSearched))
	return res, nil
}

// SearchWaypoints lists waypoint blocks under folder.
func (s *Service) SearchWaypoints(ctx context.Context, folder string) ([]models.WaypointBlock, error) {
	defer metrics.ObserveQuery("waypoints", time.Now())
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.engine.SearchWaypoints(ctx, folder)
}

// Backlinks returns the documents referencing path.
func (s *Service) Backlinks(ctx context.Context, path string, includeUnlinked bool) ([]models.BacklinkEntry, error) {
	defer metrics.ObserveQuery("backlinks", time.Now())
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, ok := s.store.Lookup(ctx, path); !ok {
		return nil, fmt.Errorf("backlinks %q: %w", path, apperr.ErrNotFound)
	}
	return s.graph.Backlinks(ctx, path, includeUnlinked)
}

// ValidateWikilinks classifies the wikilinks of path.
func (s *Service) ValidateWikilinks(ctx context.Context, path string) (*models.LinkValidation, error) {
	defer metrics.ObserveQuery("validate", time.Now())
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, ok := s.store.Lookup(ctx, path); !ok {
		return nil, fmt.Errorf("validate %q: %w", path, apperr.ErrNotFound)
	}
	return s.graph.ValidateWikilinks(ctx, path)
}

// ResolveLink resolves target as written in source. It returns
// apperr.ErrNotFound when nothing matches.
func (s *Service) ResolveLink(ctx context.Context, source, target string) (models.Document, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	doc, ok, err := s.graph.ResolveLink(ctx, source, target)
	if err != nil {
		return models.Document{}, err
	}
	if !ok {
		return models.Document{}, fmt.Errorf("resolve %q from %q: %w", target, source, apperr.ErrNotFound)
	}
	return doc, nil
}

// FindSuggestions returns up to max paths similar to query.
func (s *Service) FindSuggestions(ctx context.Context, query string, max int) ([]string, error) {
	defer metrics.ObserveQuery("suggestions", time.Now())
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.graph.FindSuggestions(ctx, query, max)
}

// ParseWikilinks parses text without touching the vault.
func (s *Service) ParseWikilinks(text string) []models.WikilinkOccurrence {
	out := parser.ParseWikilinks(text)
	if out == nil {
		out = make([]models.WikilinkOccurrence, 0)
	}
	return out
}

// ListNotes returns vault documents under folder that pass the glob filters.
func (s *Service) ListNotes(ctx context.Context, folder string, includes, excludes []string) ([]models.Document, error) {
	docs, err := s.store.ListMarkdownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return search.Candidates(docs, models.SearchQuery{
		Folder:   folder,
		Includes: includes,
		Excludes: excludes,
	}), nil
}

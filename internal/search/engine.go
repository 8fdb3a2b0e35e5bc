// Package search scans vault documents for literal or regular-expression
// matches in file names and content, and locates waypoint blocks.
//
// Every call re-reads the candidate files; nothing is cached between calls.
// Candidates are processed one at a time in store order so that a search
// stops reading the moment it has collected MaxResults matches.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/vaultlens/internal/apperr"
	"github.com/starford/vaultlens/internal/glob"
	"github.com/starford/vaultlens/internal/metrics"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/parser"
	"github.com/starford/vaultlens/internal/storage"
)

// Engine runs searches against a FileStore. It holds no per-call state and
// is safe for concurrent use when the store is.
type Engine struct {
	store  storage.FileStore
	logger *slog.Logger
}

// NewEngine creates a search engine over store.
func NewEngine(store storage.FileStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// CompilePattern builds the matcher for q. Literal queries are escaped
// first; matching is case-insensitive unless q.CaseSensitive is set.
func CompilePattern(q models.SearchQuery) (*regexp.Regexp, error) {
	expr := q.Query
	if !q.IsRegex {
		expr = regexp.QuoteMeta(expr)
	}
	if !q.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidPattern, err)
	}
	return re, nil
}

// FilterByFolder keeps documents equal to folder or beneath it. A trailing
// slash on folder is ignored and an empty folder keeps everything.
func FilterByFolder(docs []models.Document, folder string) []models.Document {
	folder = strings.TrimSuffix(folder, "/")
	if folder == "" {
		return docs
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if d.Path == folder || strings.HasPrefix(d.Path, folder+"/") {
			out = append(out, d)
		}
	}
	return out
}

// Candidates applies the folder filter and then the include/exclude globs.
func Candidates(docs []models.Document, q models.SearchQuery) []models.Document {
	if docs == nil {
		docs = make([]models.Document, 0)
	}
	docs = FilterByFolder(docs, q.Folder)
	if len(q.Includes) == 0 && len(q.Excludes) == 0 {
		return docs
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if glob.ShouldInclude(d.Path, q.Includes, q.Excludes) {
			out = append(out, d)
		}
	}
	return out
}

// Search runs q over every Markdown file in the store.
func (e *Engine) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	// Compile before listing so an invalid pattern never touches the store.
	re, err := CompilePattern(q)
	if err != nil {
		return nil, err
	}
	docs, err := e.store.ListMarkdownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: list files: %w", err)
	}
	return e.run(ctx, re, docs, q.WithDefaults())
}

// SearchFiles runs q over an explicit file set, in the order given.
func (e *Engine) SearchFiles(ctx context.Context, docs []models.Document, q models.SearchQuery) (*models.SearchResult, error) {
	re, err := CompilePattern(q)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, re, docs, q.WithDefaults())
}

func (e *Engine) run(ctx context.Context, re *regexp.Regexp, docs []models.Document, q models.SearchQuery) (*models.SearchResult, error) {
	s := &scan{
		re:       re,
		max:      q.MaxResults,
		window:   q.SnippetLength,
		snippets: q.WantSnippets(),
		matches:  make([]models.MatchRecord, 0),
	}

	for _, doc := range Candidates(docs, q) {
		if s.full() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

		s.stats.FilesSearched++
		before := len(s.matches)

		s.text(doc.Path, 0, doc.Basename)

		if !s.full() {
			text, err := e.store.ReadFile(ctx, doc)
			if err != nil {
				metrics.ReadErrors.WithLabelValues("search").Inc()
				e.logger.Debug("search: read failed",
					slog.String("path", doc.Path),
					slog.String("error", err.Error()))
				// Name matches are kept, but an unreadable file never counts
				// toward FilesWithMatches.
				continue
			}
			for i, line := range parser.SplitLines(text) {
				if s.full() {
					break
				}
				s.text(doc.Path, i+1, line)
			}
		}

		if len(s.matches) > before {
			s.stats.FilesWithMatches++
		}
	}

	s.stats.TotalMatches = len(s.matches)
	return &models.SearchResult{Matches: s.matches, Stats: s.stats}, nil
}

// scan accumulates matches for one search call.
type scan struct {
	re       *regexp.Regexp
	max      int
	window   int
	snippets bool
	matches  []models.MatchRecord
	stats    models.SearchStats
}

func (s *scan) full() bool {
	return len(s.matches) >= s.max
}

// text records every match of the pattern in one line (or file name) until
// the result budget runs out. FindAllStringIndex steps past empty matches,
// so zero-width patterns such as \b always terminate.
func (s *scan) text(path string, line int, text string) {
	locs := s.re.FindAllStringIndex(text, s.max-len(s.matches))
	if len(locs) == 0 {
		return
	}
	conv := newOffsets(text)
	for _, loc := range locs {
		start, end := conv.runes(loc[0]), conv.runes(loc[1])
		rec := models.MatchRecord{
			Path:   path,
			Line:   line,
			Column: start + 1,
		}
		if s.snippets {
			snippet, r := Snippet(text, start, end, s.window)
			rec.Snippet = snippet
			rec.MatchRanges = []models.MatchRange{r}
		} else {
			rec.Snippet = text
			rec.MatchRanges = []models.MatchRange{{Start: start, End: end}}
		}
		s.matches = append(s.matches, rec)
	}
}

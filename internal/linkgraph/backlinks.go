package linkgraph

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/starford/vaultlens/internal/index"
	"github.com/starford/vaultlens/internal/metrics"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/parser"
)

// Backlinks returns the documents that reference targetPath. Linked entries
// come from the link index and are re-checked against the source text; when
// includeUnlinked is set, documents that mention the target's name without
// linking it follow as unlinked entries. A document appears at most once.
// An unknown target yields no entries.
func (g *Graph) Backlinks(ctx context.Context, targetPath string, includeUnlinked bool) ([]models.BacklinkEntry, error) {
	out := make([]models.BacklinkEntry, 0)
	target, ok := g.store.Lookup(ctx, targetPath)
	if !ok {
		return out, nil
	}

	resolved, err := g.links.ResolvedLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("linkgraph: resolved links: %w", err)
	}

	seen := make(map[string]bool)
	for _, src := range index.Sources(resolved) {
		if resolved[src][target.Path] == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("linkgraph: %w", err)
		}
		entry, ok, err := g.linked(ctx, src, target.Path)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, entry)
			seen[src] = true
		}
	}

	if !includeUnlinked {
		return out, nil
	}

	docs, err := g.store.ListMarkdownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("linkgraph: list files: %w", err)
	}
	mention := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(target.Basename) + `\b`)
	for _, doc := range docs {
		if doc.Path == target.Path || seen[doc.Path] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("linkgraph: %w", err)
		}
		text, ok := g.read(ctx, doc)
		if !ok {
			continue
		}
		var occ []models.BacklinkOccurrence
		for i, line := range parser.SplitLines(text) {
			if mention.MatchString(line) {
				occ = append(occ, models.BacklinkOccurrence{Line: i + 1, Snippet: line})
			}
		}
		if len(occ) > 0 {
			out = append(out, models.BacklinkEntry{
				SourcePath:  doc.Path,
				Type:        models.BacklinkUnlinked,
				Occurrences: occ,
			})
		}
	}
	return out, nil
}

// linked re-reads src and keeps the wikilinks that still resolve to target.
func (g *Graph) linked(ctx context.Context, src, target string) (models.BacklinkEntry, bool, error) {
	doc, ok := g.store.Lookup(ctx, src)
	if !ok {
		return models.BacklinkEntry{}, false, nil
	}
	text, ok := g.read(ctx, doc)
	if !ok {
		return models.BacklinkEntry{}, false, nil
	}

	lines := parser.SplitLines(text)
	var occ []models.BacklinkOccurrence
	for _, link := range parser.ParseWikilinks(text) {
		dest, ok, err := g.links.FirstLinkpathDest(ctx, link.Target, src)
		if err != nil {
			return models.BacklinkEntry{}, false, fmt.Errorf("linkgraph: resolve %q: %w", link.Target, err)
		}
		if !ok || dest.Path != target {
			continue
		}
		occ = append(occ, models.BacklinkOccurrence{Line: link.Line, Snippet: lines[link.Line-1]})
	}
	if len(occ) == 0 {
		return models.BacklinkEntry{}, false, nil
	}
	return models.BacklinkEntry{SourcePath: src, Type: models.BacklinkLinked, Occurrences: occ}, true, nil
}

// read returns the text of doc, or false after logging a read failure.
func (g *Graph) read(ctx context.Context, doc models.Document) (string, bool) {
	text, err := g.store.ReadFile(ctx, doc)
	if err != nil {
		metrics.ReadErrors.WithLabelValues("backlinks").Inc()
		g.logger.Debug("linkgraph: read failed",
			slog.String("path", doc.Path),
			slog.String("error", err.Error()))
		return "", false
	}
	return text, true
}

// ValidateWikilinks classifies every wikilink in sourcePath as resolved or
// unresolved. Unresolved links carry up to DefaultSuggestions suggestions.
// An unknown or unreadable source yields empty lists.
func (g *Graph) ValidateWikilinks(ctx context.Context, sourcePath string) (*models.LinkValidation, error) {
	out := &models.LinkValidation{
		ResolvedLinks:   make([]models.ResolvedLink, 0),
		UnresolvedLinks: make([]models.UnresolvedLink, 0),
	}
	doc, ok := g.store.Lookup(ctx, sourcePath)
	if !ok {
		return out, nil
	}
	text, ok := g.read(ctx, doc)
	if !ok {
		return out, nil
	}

	var docs []models.Document
	for _, link := range parser.ParseWikilinks(text) {
		dest, ok, err := g.links.FirstLinkpathDest(ctx, link.Target, doc.Path)
		if err != nil {
			return nil, fmt.Errorf("linkgraph: resolve %q: %w", link.Target, err)
		}
		if ok {
			out.ResolvedLinks = append(out.ResolvedLinks, models.ResolvedLink{Text: link.Raw, Target: dest.Path})
			continue
		}
		if docs == nil {
			if docs, err = g.store.ListMarkdownFiles(ctx); err != nil {
				return nil, fmt.Errorf("linkgraph: list files: %w", err)
			}
		}
		out.UnresolvedLinks = append(out.UnresolvedLinks, models.UnresolvedLink{
			Text:        link.Raw,
			Suggestions: Suggest(docs, link.Target, DefaultSuggestions),
		})
	}
	return out, nil
}

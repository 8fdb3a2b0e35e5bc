package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/vaultlens/internal/metrics"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/parser"
)

// Waypoint block delimiters. A marker may share its line with other text.
const (
	WaypointBegin = "%% Begin Waypoint %%"
	WaypointEnd   = "%% End Waypoint %%"
)

// SearchWaypoints returns every complete waypoint block in documents under
// folder (all documents when folder is empty). Unreadable files are skipped.
func (e *Engine) SearchWaypoints(ctx context.Context, folder string) ([]models.WaypointBlock, error) {
	docs, err := e.store.ListMarkdownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: list files: %w", err)
	}

	out := make([]models.WaypointBlock, 0)
	for _, doc := range FilterByFolder(docs, folder) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		text, err := e.store.ReadFile(ctx, doc)
		if err != nil {
			metrics.ReadErrors.WithLabelValues("waypoints").Inc()
			e.logger.Debug("waypoints: read failed",
				slog.String("path", doc.Path),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, ExtractWaypoints(doc.Path, text)...)
	}
	return out, nil
}

// ExtractWaypoints scans text for begin/end marker pairs. Line numbers are
// 1-based: Line is the begin marker, and WaypointRange spans the interior
// from the line after the begin marker to the end marker line. A begin
// marker without a matching end marker ends the scan for this text.
func ExtractWaypoints(path, text string) []models.WaypointBlock {
	lines := parser.SplitLines(text)
	var out []models.WaypointBlock
	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i], WaypointBegin) {
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.Contains(lines[j], WaypointEnd) {
				end = j
				break
			}
		}
		if end < 0 {
			break
		}

		interior := strings.Join(lines[i+1:end], "\n")
		out = append(out, models.WaypointBlock{
			Path:          path,
			Line:          i + 1,
			Content:       strings.TrimSpace(interior),
			Links:         parser.RawLinks(interior),
			WaypointRange: models.LineRange{Start: i + 2, End: end + 1},
		})
		i = end
	}
	return out
}

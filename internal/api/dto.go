package api

import (
	"github.com/starford/vaultlens/internal/models"
)

// ParseWikilinksRequest is the request body for POST /wikilinks.
type ParseWikilinksRequest struct {
	Text string `json:"text" example:"See [[target|alias]] here." validate:"required"`
}

// ParseWikilinksResponse wraps parsed wikilinks.
type ParseWikilinksResponse struct {
	Links []models.WikilinkOccurrence `json:"links" validate:"required"`
}

// SearchResponse is the response for GET /search (aliased from the domain layer).
type SearchResponse = models.SearchResult

// WaypointsResponse wraps waypoint blocks.
type WaypointsResponse struct {
	Waypoints []models.WaypointBlock `json:"waypoints" validate:"required"`
}

// BacklinksResponse wraps backlink entries.
type BacklinksResponse struct {
	Path      string                 `json:"path" example:"notes/hello.md" validate:"required"`
	Backlinks []models.BacklinkEntry `json:"backlinks" validate:"required"`
}

// ValidationResponse is the response for GET /links/validate (aliased from the domain layer).
type ValidationResponse = models.LinkValidation

// SuggestionsResponse wraps suggested paths.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions" example:"notes/hello.md" validate:"required"`
}

// NoteListResponse wraps filtered document listings.
type NoteListResponse struct {
	Notes []models.Document `json:"notes" validate:"required"`
	Total int               `json:"total" example:"42" validate:"required"`
}

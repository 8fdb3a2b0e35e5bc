package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultlens/internal/queryservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *queryservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Search.
	r.Get("/search", h.Search)
	r.Get("/waypoints", h.Waypoints)

	// Links.
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/links/validate/*", h.ValidateLinks)
	r.Get("/links/resolve", h.ResolveLink)
	r.Get("/suggestions", h.Suggestions)
	r.Post("/wikilinks", h.ParseWikilinks)

	// Notes.
	r.Get("/notes", h.ListNotes)

	return r
}

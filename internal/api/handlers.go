package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/queryservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *queryservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *queryservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func queryBool(v url.Values, key string) bool {
	b, _ := strconv.ParseBool(v.Get(key))
	return b
}

func queryInt(v url.Values, key string) int {
	n, _ := strconv.Atoi(v.Get(key))
	return n
}

func validateSearch(q *models.SearchQuery) error {
	return validation.ValidateStruct(q,
		validation.Field(&q.Query, validation.Required),
		validation.Field(&q.MaxResults, validation.Min(0)),
		validation.Field(&q.SnippetLength, validation.Min(0)),
	)
}

// Search handles GET /api/search.
//
//	@Summary		Search note names and content
//	@Tags			search
//	@Produce		json
//	@Param			q				query		string		true	"Search query"
//	@Param			regex			query		bool		false	"Treat q as a regular expression"
//	@Param			case_sensitive	query		bool		false	"Match case"
//	@Param			folder			query		string		false	"Restrict to a folder"
//	@Param			include			query		[]string	false	"Include globs"
//	@Param			exclude			query		[]string	false	"Exclude globs"
//	@Param			max_results		query		int			false	"Max matches"
//	@Param			snippet_length	query		int			false	"Snippet window in characters"
//	@Param			snippets		query		bool		false	"Cut snippet windows (default true)"
//	@Success		200				{object}	SearchResponse
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := models.SearchQuery{
		Query:         v.Get("q"),
		IsRegex:       queryBool(v, "regex"),
		CaseSensitive: queryBool(v, "case_sensitive"),
		Folder:        v.Get("folder"),
		Includes:      v["include"],
		Excludes:      v["exclude"],
		MaxResults:    queryInt(v, "max_results"),
		SnippetLength: queryInt(v, "snippet_length"),
	}
	if err := validateSearch(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if s := v.Get("snippets"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid 'snippets' value"))
			return
		}
		q.ReturnSnippets = &b
	}

	res, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q.Query))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Waypoints handles GET /api/waypoints.
//
//	@Summary		List waypoint blocks
//	@Tags			search
//	@Produce		json
//	@Param			folder	query		string	false	"Restrict to a folder"
//	@Success		200		{object}	WaypointsResponse
//	@Security		BearerAuth
//	@Router			/waypoints [get]
func (h *Handler) Waypoints(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	blocks, err := h.svc.SearchWaypoints(r.Context(), folder)
	if err != nil {
		writeError(w, "waypoints", err, slog.String("folder", folder))
		return
	}
	writeJSON(w, http.StatusOK, WaypointsResponse{Waypoints: blocks})
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		Find notes referencing a note
//	@Tags			links
//	@Produce		json
//	@Param			path		path		string	true	"Note path"
//	@Param			unlinked	query		bool	false	"Include unlinked mentions"
//	@Success		200			{object}	BacklinksResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	entries, err := h.svc.Backlinks(r.Context(), path, queryBool(r.URL.Query(), "unlinked"))
	if err != nil {
		writeError(w, "backlinks", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Path: path, Backlinks: entries})
}

// ValidateLinks handles GET /api/links/validate/*.
//
//	@Summary		Classify the wikilinks of a note
//	@Tags			links
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	ValidationResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/validate/{path} [get]
func (h *Handler) ValidateLinks(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	v, err := h.svc.ValidateWikilinks(r.Context(), path)
	if err != nil {
		writeError(w, "validate links", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ResolveLink handles GET /api/links/resolve.
//
//	@Summary		Resolve a wikilink target
//	@Tags			links
//	@Produce		json
//	@Param			source	query		string	true	"Path of the note containing the link"
//	@Param			target	query		string	true	"Raw link target"
//	@Success		200		{object}	models.Document
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/resolve [get]
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	source, target := r.URL.Query().Get("source"), r.URL.Query().Get("target")
	if source == "" || target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("source and target are required"))
		return
	}
	doc, err := h.svc.ResolveLink(r.Context(), source, target)
	if err != nil {
		writeError(w, "resolve link", err, slog.String("source", source), slog.String("target", target))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Suggestions handles GET /api/suggestions.
//
//	@Summary		Suggest notes similar to a query
//	@Tags			links
//	@Produce		json
//	@Param			query	query		string	true	"Link text"
//	@Param			max		query		int		false	"Max suggestions (default 5)"
//	@Success		200		{object}	SuggestionsResponse
//	@Security		BearerAuth
//	@Router			/suggestions [get]
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	query := v.Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'query' is required"))
		return
	}
	out, err := h.svc.FindSuggestions(r.Context(), query, queryInt(v, "max"))
	if err != nil {
		writeError(w, "suggestions", err, slog.String("query", query))
		return
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: out})
}

// ParseWikilinks handles POST /api/wikilinks.
//
//	@Summary		Parse wikilinks out of text
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseWikilinksRequest	true	"Text to parse"
//	@Success		200		{object}	ParseWikilinksResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/wikilinks [post]
func (h *Handler) ParseWikilinks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ParseWikilinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	writeJSON(w, http.StatusOK, ParseWikilinksResponse{Links: h.svc.ParseWikilinks(req.Text)})
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes filtered by folder and globs
//	@Tags			notes
//	@Produce		json
//	@Param			folder	query		string		false	"Restrict to a folder"
//	@Param			include	query		[]string	false	"Include globs"
//	@Param			exclude	query		[]string	false	"Exclude globs"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	docs, err := h.svc.ListNotes(r.Context(), v.Get("folder"), v["include"], v["exclude"])
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: docs, Total: len(docs)})
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes vaultlens queries for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultlens/internal/apperr"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/queryservice"
)

const syntaxURI = "vaultlens://query-syntax"

// Server wraps the MCP server with vaultlens tools.
type Server struct {
	mcp *server.MCPServer
	svc *queryservice.Service
}

// New creates a new MCP server with all vaultlens tools registered.
func New(svc *queryservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"vaultlens",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Search note names and content for a literal string or regular expression. "+
			"Returns matches with line, column, snippet and match ranges plus search stats."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text or pattern to search for")),
		mcp.WithBoolean("isRegex", mcp.Description("Treat query as an RE2 regular expression")),
		mcp.WithBoolean("caseSensitive", mcp.Description("Match case (default false)")),
		mcp.WithString("folder", mcp.Description("Only search this folder and its subfolders")),
		mcp.WithArray("includes", mcp.WithStringItems(), mcp.Description("Glob patterns a path must match")),
		mcp.WithArray("excludes", mcp.WithStringItems(), mcp.Description("Glob patterns that drop a path")),
		mcp.WithNumber("maxResults", mcp.Description("Stop after this many matches (default 100)")),
		mcp.WithNumber("snippetLength", mcp.Description("Snippet window in characters (default 100)")),
		mcp.WithBoolean("returnSnippets", mcp.Description("Cut snippet windows around matches (default true)")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("search_waypoints",
		mcp.WithDescription("List %% Begin Waypoint %% blocks and the links inside them."),
		mcp.WithString("folder", mcp.Description("Optional folder to scan (empty for all)")),
	), s.searchWaypoints)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note, optionally including plain-text mentions."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
		mcp.WithBoolean("includeUnlinked", mcp.Description("Also report unlinked mentions of the note's name")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("validate_wikilinks",
		mcp.WithDescription("Check every wikilink in a note and suggest targets for broken ones."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to check")),
	), s.validateWikilinks)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a wikilink target as written in a source note."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Path of the note containing the link")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Link target, e.g. 'note' or 'folder/note#Heading'")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("find_suggestions",
		mcp.WithDescription("Suggest note paths similar to a link target."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Link text to match")),
		mcp.WithNumber("max", mcp.Description("Maximum suggestions (default 5)")),
	), s.findSuggestions)

	s.mcp.AddTool(mcp.NewTool("parse_wikilinks",
		mcp.WithDescription("Extract wikilinks with their positions from arbitrary text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown text")),
	), s.parseWikilinks)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, optionally limited to a folder and filtered by globs."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
		mcp.WithArray("includes", mcp.WithStringItems(), mcp.Description("Glob patterns a path must match")),
		mcp.WithArray("excludes", mcp.WithStringItems(), mcp.Description("Glob patterns that drop a path")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_query_syntax",
		mcp.WithDescription("Returns the search, glob and wikilink syntax reference."),
	), s.getQuerySyntax)

	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Query Syntax",
			mcp.WithResourceDescription("Search, glob and wikilink syntax understood by vaultlens tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	case errors.Is(err, context.DeadlineExceeded):
		return mcp.NewToolResultError("query timed out")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := models.SearchQuery{
		Query:         query,
		IsRegex:       req.GetBool("isRegex", false),
		CaseSensitive: req.GetBool("caseSensitive", false),
		Folder:        req.GetString("folder", ""),
		Includes:      req.GetStringSlice("includes", nil),
		Excludes:      req.GetStringSlice("excludes", nil),
		MaxResults:    req.GetInt("maxResults", 0),
		SnippetLength: req.GetInt("snippetLength", 0),
	}
	snippets := req.GetBool("returnSnippets", true)
	q.ReturnSnippets = &snippets

	res, err := s.svc.Search(ctx, q)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(res)
}

func (s *Server) searchWaypoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blocks, err := s.svc.SearchWaypoints(ctx, req.GetString("folder", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(blocks)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.svc.Backlinks(ctx, path, req.GetBool("includeUnlinked", false))
	if err != nil {
		return errorResult(err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return jsonResult(entries)
}

func (s *Server) validateWikilinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.ValidateWikilinks(ctx, path)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(v)
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.ResolveLink(ctx, source, target)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(doc)
}

func (s *Server) findSuggestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.FindSuggestions(ctx, query, req.GetInt("max", 0))
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(strings.Join(out, "\n")), nil
}

func (s *Server) parseWikilinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.ParseWikilinks(text))
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.svc.ListNotes(ctx,
		req.GetString("folder", ""),
		req.GetStringSlice("includes", nil),
		req.GetStringSlice("excludes", nil))
	if err != nil {
		return errorResult(err), nil
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getQuerySyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QuerySyntax), nil
}

func (s *Server) readSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     QuerySyntax,
		},
	}, nil
}

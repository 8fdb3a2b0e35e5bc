package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/queryservice"
	"github.com/starford/vaultlens/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store := testutil.NewMemStore(
		"note.md", "See [[target]] here.\nAlso [[missing]].",
		"target.md", "# Target",
		"hub/Hub.md", "%% Begin Waypoint %%\n- [[note|Note]]\n%% End Waypoint %%",
		"drafts/idea.md", "target practice",
	)
	svc := queryservice.NewService(store, testutil.NewMemIndex(store), queryservice.Limits{}, nil)
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_vault":
		result, err = srv.searchVault(ctx, req)
	case "search_waypoints":
		result, err = srv.searchWaypoints(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "validate_wikilinks":
		result, err = srv.validateWikilinks(ctx, req)
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	case "find_suggestions":
		result, err = srv.findSuggestions(ctx, req)
	case "parse_wikilinks":
		result, err = srv.parseWikilinks(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_query_syntax":
		result, err = srv.getQuerySyntax(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchVault(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_vault", map[string]interface{}{
		"query":    "target",
		"excludes": []interface{}{"drafts/**"},
	})
	if r.IsError {
		t.Fatalf("search error: %s", resultText(r))
	}
	var res models.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	// note.md line 1, target.md name and heading.
	if res.Stats.TotalMatches != 3 {
		t.Errorf("total = %d, want 3", res.Stats.TotalMatches)
	}
}

func TestSearchVault_InvalidRegex(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_vault", map[string]interface{}{"query": "[", "isRegex": true})
	if !r.IsError {
		t.Error("expected error for invalid pattern")
	}
	if !strings.Contains(resultText(r), "invalid pattern") {
		t.Errorf("error text = %q", resultText(r))
	}
}

func TestSearchVault_MissingQuery(t *testing.T) {
	srv := testServer(t)
	if r := callTool(t, srv, "search_vault", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing query")
	}
}

func TestSearchWaypoints(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_waypoints", map[string]interface{}{"folder": "hub"})
	var blocks []models.WaypointBlock
	if err := json.Unmarshal([]byte(resultText(r)), &blocks); err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Links[0] != "note|Note" {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "target.md"})
	var entries []models.BacklinkEntry
	if err := json.Unmarshal([]byte(resultText(r)), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].SourcePath != "note.md" {
		t.Errorf("backlinks = %+v, want note.md", entries)
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "target.md", "includeUnlinked": true})
	entries = nil
	if err := json.Unmarshal([]byte(resultText(r)), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].Type != models.BacklinkUnlinked {
		t.Errorf("backlinks = %+v, want linked + unlinked", entries)
	}
}

func TestGetBacklinks_None(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "drafts/idea.md"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("text = %q", text)
	}
}

func TestGetBacklinks_Missing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestValidateWikilinks(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "validate_wikilinks", map[string]interface{}{"path": "note.md"})
	var v models.LinkValidation
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatal(err)
	}
	if len(v.ResolvedLinks) != 1 || len(v.UnresolvedLinks) != 1 {
		t.Fatalf("validation = %+v", v)
	}
	if v.UnresolvedLinks[0].Text != "[[missing]]" {
		t.Errorf("unresolved = %q", v.UnresolvedLinks[0].Text)
	}
}

func TestResolveLink(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "resolve_link", map[string]interface{}{"source": "note.md", "target": "Target"})
	var doc models.Document
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Path != "target.md" {
		t.Errorf("resolved = %q, want target.md", doc.Path)
	}

	r = callTool(t, srv, "resolve_link", map[string]interface{}{"source": "ghost.md", "target": "target"})
	if !r.IsError {
		t.Error("expected error for unknown source")
	}
}

func TestFindSuggestions(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "find_suggestions", map[string]interface{}{"query": "targ", "max": 1})
	if text := resultText(r); text != "target.md" {
		t.Errorf("suggestions = %q, want target.md", text)
	}
}

func TestParseWikilinks(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "parse_wikilinks", map[string]interface{}{"text": "[[a]] [[b|c]]"})
	var links []models.WikilinkOccurrence
	if err := json.Unmarshal([]byte(resultText(r)), &links); err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 || links[1].Alias != "c" || links[1].Column != 7 {
		t.Errorf("links = %+v", links)
	}
}

func TestListNotes(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	if got := strings.Count(resultText(r), "\n") + 1; got != 4 {
		t.Errorf("listed %d notes, want 4", got)
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"includes": []interface{}{"*.md"}})
	if text := resultText(r); text != "note.md\ntarget.md" {
		t.Errorf("top-level notes = %q", text)
	}
}

func TestGetQuerySyntax(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_query_syntax", nil)
	if !strings.Contains(resultText(r), "%% Begin Waypoint %%") {
		t.Error("syntax reference missing waypoint section")
	}
}

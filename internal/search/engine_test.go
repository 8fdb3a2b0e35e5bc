package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultlens/internal/apperr"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/testutil"
)

func newEngine(store *testutil.MemStore) *Engine {
	return NewEngine(store, nil)
}

func TestSearch_Deterministic(t *testing.T) {
	store := testutil.NewMemStore(
		"a.md", "alpha beta\nbeta gamma",
		"b.md", "beta",
		"beta.md", "nothing here",
	)
	e := newEngine(store)
	q := models.SearchQuery{Query: "beta"}

	first, err := e.Search(context.Background(), q)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := e.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 4, first.Stats.TotalMatches)
	assert.Equal(t, 3, first.Stats.FilesWithMatches)
	assert.Equal(t, 3, first.Stats.FilesSearched)
}

func TestSearch_MaxResultsStopsEarly(t *testing.T) {
	store := testutil.NewMemStore(
		"a.md", "foo foo foo",
		"b.md", "foo foo foo",
		"c.md", "foo foo foo",
	)
	// c.md is never reached; a read of it would fail.
	store.FailRead("c.md")

	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{Query: "foo", MaxResults: 5})
	require.NoError(t, err)

	require.Len(t, res.Matches, 5)
	assert.Equal(t, 5, res.Stats.TotalMatches)
	assert.Equal(t, 2, res.Stats.FilesSearched)
	assert.Equal(t, 2, res.Stats.FilesWithMatches)
	assert.Equal(t, "b.md", res.Matches[4].Path)
	assert.Equal(t, 5, res.Matches[4].Column)
}

func TestSearch_ZeroWidthTerminates(t *testing.T) {
	store := testutil.NewMemStore("abc.md", "abc")
	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{
		Query: `\b`, IsRegex: true, MaxResults: 10,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Matches), 10)
	assert.NotEmpty(t, res.Matches)
	for _, m := range res.Matches {
		assert.Equal(t, m.MatchRanges[0].Start, m.MatchRanges[0].End)
	}
}

func TestSearch_SnippetWindow(t *testing.T) {
	line := strings.Repeat("a", 250) + "test" + strings.Repeat("a", 346)
	require.Len(t, line, 600)
	store := testutil.NewMemStore("long.md", line)

	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{
		Query: "test", SnippetLength: 100,
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, 1, m.Line)
	assert.Equal(t, 251, m.Column)
	assert.Len(t, m.Snippet, 100)
	r := m.MatchRanges[0]
	assert.Equal(t, models.MatchRange{Start: 48, End: 52}, r)
	assert.Equal(t, "test", m.Snippet[r.Start:r.End])
}

func TestSearch_FilenameMatch(t *testing.T) {
	store := testutil.NewMemStore("projects/Project Plan.md", "no hits in the body")

	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{Query: "plan"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, 0, m.Line)
	assert.Equal(t, 9, m.Column)
	assert.Equal(t, "Project Plan", m.Snippet)
	assert.Equal(t, []models.MatchRange{{Start: 8, End: 12}}, m.MatchRanges)
	assert.Equal(t, 1, res.Stats.FilesWithMatches)
}

func TestSearch_CaseSensitivity(t *testing.T) {
	store := testutil.NewMemStore("x.md", "Go go GO")
	e := newEngine(store)

	res, err := e.Search(context.Background(), models.SearchQuery{Query: "go"})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)

	res, err = e.Search(context.Background(), models.SearchQuery{Query: "go", CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 4, res.Matches[0].Column)
}

func TestSearch_LiteralEscapesMetacharacters(t *testing.T) {
	store := testutil.NewMemStore("x.md", "cost is $5 (approx)\ncost is 55")
	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{Query: "$5 (approx)"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Line)
}

func TestSearch_ColumnsCountCharacters(t *testing.T) {
	store := testutil.NewMemStore("x.md", "héllo world")
	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{Query: "world"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 7, res.Matches[0].Column)
	assert.Equal(t, models.MatchRange{Start: 6, End: 11}, res.Matches[0].MatchRanges[0])
}

func TestSearch_WithoutSnippets(t *testing.T) {
	line := strings.Repeat("x", 300) + "needle"
	store := testutil.NewMemStore("x.md", line)
	off := false

	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{
		Query: "needle", SnippetLength: 20, ReturnSnippets: &off,
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, line, res.Matches[0].Snippet)
	assert.Equal(t, models.MatchRange{Start: 300, End: 306}, res.Matches[0].MatchRanges[0])
}

func TestSearch_FolderAndGlobs(t *testing.T) {
	store := testutil.NewMemStore(
		"notes/a.md", "hit",
		"notes2/b.md", "hit",
		"notes/sub/c.md", "hit",
		"notes/draft-d.md", "hit",
	)
	e := newEngine(store)

	res, err := e.Search(context.Background(), models.SearchQuery{Query: "hit", Folder: "notes/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/a.md", "notes/sub/c.md", "notes/draft-d.md"}, paths(res))

	res, err = e.Search(context.Background(), models.SearchQuery{
		Query:    "hit",
		Includes: []string{"notes/**"},
		Excludes: []string{"**/draft-*"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/a.md", "notes/sub/c.md"}, paths(res))
}

func TestSearch_ReadErrorSkipsFile(t *testing.T) {
	store := testutil.NewMemStore(
		"a.md", "hit",
		"hit.md", "hit",
		"c.md", "hit",
	)
	store.FailRead("hit.md")

	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{Query: "hit"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.FilesSearched)
	assert.Equal(t, 2, res.Stats.FilesWithMatches)
	// The unreadable file keeps its name match only.
	assert.Equal(t, []string{"a.md", "hit.md", "c.md"}, paths(res))
	assert.Equal(t, 0, res.Matches[1].Line)
}

func TestSearch_InvalidPattern(t *testing.T) {
	store := testutil.NewMemStore("a.md", "(")
	res, err := newEngine(store).Search(context.Background(), models.SearchQuery{Query: "(", IsRegex: true})
	require.ErrorIs(t, err, apperr.ErrInvalidPattern)
	assert.Nil(t, res)
}

func TestSearch_Cancelled(t *testing.T) {
	store := testutil.NewMemStore("a.md", "hit")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine(store).Search(ctx, models.SearchQuery{Query: "hit"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearchFiles_UsesGivenOrder(t *testing.T) {
	store := testutil.NewMemStore("a.md", "hit", "b.md", "hit")
	docs := []models.Document{models.NewDocument("b.md"), models.NewDocument("a.md")}

	res, err := newEngine(store).SearchFiles(context.Background(), docs, models.SearchQuery{Query: "hit", MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md"}, paths(res))
}

func TestFilterByFolder(t *testing.T) {
	docs := []models.Document{
		models.NewDocument("a.md"),
		models.NewDocument("dir/b.md"),
		models.NewDocument("directory/c.md"),
	}
	assert.Len(t, FilterByFolder(docs, ""), 3)
	got := FilterByFolder(docs, "dir/")
	require.Len(t, got, 1)
	assert.Equal(t, "dir/b.md", got[0].Path)
}

func paths(res *models.SearchResult) []string {
	out := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		out = append(out, m.Path)
	}
	return out
}

func TestCandidates_NilInputYieldsEmptySlice(t *testing.T) {
	got := Candidates(nil, models.SearchQuery{})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

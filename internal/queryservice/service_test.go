package queryservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultlens/internal/apperr"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/testutil"
)

func newService(limits Limits, pairs ...string) *Service {
	store := testutil.NewMemStore(pairs...)
	return NewService(store, testutil.NewMemIndex(store), limits, nil)
}

func TestSearch_AppliesConfiguredLimits(t *testing.T) {
	svc := newService(Limits{MaxResults: 2, SnippetLength: 10},
		"a.md", "x x x",
		"b.md", "x",
	)

	res, err := svc.Search(context.Background(), models.SearchQuery{Query: "x"})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
	assert.Equal(t, 1, res.Stats.FilesSearched)
	assert.Equal(t, "x x x", res.Matches[0].Snippet)
}

func TestSearch_ExplicitLimitWins(t *testing.T) {
	svc := newService(Limits{MaxResults: 1}, "a.md", "x x x")

	res, err := svc.Search(context.Background(), models.SearchQuery{Query: "x", MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
}

func TestNewService_Defaults(t *testing.T) {
	svc := newService(Limits{})
	assert.Equal(t, models.DefaultMaxResults, svc.limits.MaxResults)
	assert.Equal(t, models.DefaultSnippetLength, svc.limits.SnippetLength)
}

func TestSearch_InvalidPattern(t *testing.T) {
	svc := newService(Limits{}, "a.md", "x")
	_, err := svc.Search(context.Background(), models.SearchQuery{Query: "(", IsRegex: true})
	assert.ErrorIs(t, err, apperr.ErrInvalidPattern)
}

func TestSearch_Timeout(t *testing.T) {
	svc := newService(Limits{Timeout: time.Nanosecond}, "a.md", "x")
	_, err := svc.Search(context.Background(), models.SearchQuery{Query: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBacklinks_NotFound(t *testing.T) {
	svc := newService(Limits{}, "a.md", "[[b]]")
	_, err := svc.Backlinks(context.Background(), "missing.md", false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBacklinks_Found(t *testing.T) {
	svc := newService(Limits{}, "a.md", "[[b]]", "b.md", "")
	entries, err := svc.Backlinks(context.Background(), "b.md", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.md", entries[0].SourcePath)
}

func TestValidateWikilinks_NotFound(t *testing.T) {
	svc := newService(Limits{}, "a.md", "[[b]]")
	_, err := svc.ValidateWikilinks(context.Background(), "missing.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveLink(t *testing.T) {
	svc := newService(Limits{}, "a.md", "[[b]]", "sub/b.md", "")

	doc, err := svc.ResolveLink(context.Background(), "a.md", "b#Heading")
	require.NoError(t, err)
	assert.Equal(t, "sub/b.md", doc.Path)

	_, err = svc.ResolveLink(context.Background(), "a.md", "nothing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestParseWikilinks_NeverNil(t *testing.T) {
	svc := newService(Limits{})
	out := svc.ParseWikilinks("no links")
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestListNotes(t *testing.T) {
	svc := newService(Limits{},
		"a.md", "",
		"notes/b.md", "",
		"notes/drafts/c.md", "",
	)

	docs, err := svc.ListNotes(context.Background(), "notes", nil, []string{"**/drafts/**"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes/b.md", docs[0].Path)
}

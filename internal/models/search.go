package models

// Search defaults applied when a query leaves the field unset.
const (
	DefaultMaxResults    = 100
	DefaultSnippetLength = 100
)

// SearchQuery fully describes one search invocation.
type SearchQuery struct {
	Query         string   `json:"query"`
	IsRegex       bool     `json:"isRegex"`
	CaseSensitive bool     `json:"caseSensitive"`
	Folder        string   `json:"folder,omitempty"`
	Includes      []string `json:"includes,omitempty"`
	Excludes      []string `json:"excludes,omitempty"`
	MaxResults    int      `json:"maxResults"`
	SnippetLength int      `json:"snippetLength"`
	// ReturnSnippets is a pointer so that an absent value means true.
	ReturnSnippets *bool `json:"returnSnippets,omitempty"`
}

// WithDefaults returns a copy with zero limits replaced by the defaults.
func (q SearchQuery) WithDefaults() SearchQuery {
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.SnippetLength <= 0 {
		q.SnippetLength = DefaultSnippetLength
	}
	if q.ReturnSnippets == nil {
		t := true
		q.ReturnSnippets = &t
	}
	return q
}

// WantSnippets reports whether snippet windows should be cut.
func (q SearchQuery) WantSnippets() bool {
	return q.ReturnSnippets == nil || *q.ReturnSnippets
}

// MatchRange is a half-open [Start, End) span in characters within a snippet.
type MatchRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MatchRecord is one match. Line 0 marks a filename match.
type MatchRecord struct {
	Path        string       `json:"path"`
	Line        int          `json:"line"`
	Column      int          `json:"column"`
	Snippet     string       `json:"snippet"`
	MatchRanges []MatchRange `json:"matchRanges"`
}

// SearchStats summarises one search call.
type SearchStats struct {
	FilesSearched    int `json:"filesSearched"`
	FilesWithMatches int `json:"filesWithMatches"`
	TotalMatches     int `json:"totalMatches"`
}

// SearchResult is the outcome of a search call.
type SearchResult struct {
	Matches []MatchRecord `json:"matches"`
	Stats   SearchStats   `json:"stats"`
}

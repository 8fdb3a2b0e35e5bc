// Package models defines the domain types for vaultlens.
package models

import (
	"path"
	"strings"
	"time"
)

// Document identifies a file in the vault. It is owned by the file store and
// never mutated by the query engine.
type Document struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
}

// NewDocument builds a Document from a forward-slash vault path. Basename is
// the file name without its extension.
func NewDocument(p string) Document {
	name := path.Base(p)
	return Document{
		Path:     p,
		Basename: strings.TrimSuffix(name, path.Ext(name)),
	}
}

// WikilinkOccurrence is one [[target|alias]] span found in a text.
type WikilinkOccurrence struct {
	Raw    string `json:"raw"`
	Target string `json:"target"`
	Alias  string `json:"alias,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// ResolvedLink is a wikilink whose target resolved to a document.
type ResolvedLink struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

// UnresolvedLink is a wikilink with no destination, plus fuzzy suggestions.
type UnresolvedLink struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions"`
}

// LinkValidation classifies every wikilink of one source document.
type LinkValidation struct {
	ResolvedLinks   []ResolvedLink   `json:"resolvedLinks"`
	UnresolvedLinks []UnresolvedLink `json:"unresolvedLinks"`
}

// Backlink kinds.
const (
	BacklinkLinked   = "linked"
	BacklinkUnlinked = "unlinked"
)

// BacklinkOccurrence is one referencing line inside a source document.
type BacklinkOccurrence struct {
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// BacklinkEntry groups the occurrences of one source document.
type BacklinkEntry struct {
	SourcePath  string               `json:"sourcePath"`
	Type        string               `json:"type"`
	Occurrences []BacklinkOccurrence `json:"occurrences"`
}

// LineRange is an inclusive 1-indexed line span.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// WaypointBlock is the interior of a %% Begin Waypoint %% / %% End Waypoint %% pair.
type WaypointBlock struct {
	Path          string    `json:"path"`
	Line          int       `json:"line"`
	Content       string    `json:"content"`
	Links         []string  `json:"links"`
	WaypointRange LineRange `json:"waypointRange"`
}

// NoteMetadata is the lightweight listing record used to diff the vault
// against the link index.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

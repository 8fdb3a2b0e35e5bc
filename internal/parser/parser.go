// Package parser extracts frontmatter aliases, wikilinks and waypoint links
// from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Result holds the output of parsing a Markdown file for the link index.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	// LinkCounts maps each raw link target to its number of occurrences.
	LinkCounts map[string]int
	// Aliases are alternative link names declared in frontmatter.
	Aliases []string
}

// Parse extracts frontmatter, body, wikilink targets and aliases from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		LinkCounts:  countLinks(body),
		Aliases:     extractAliases(fm),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: the whole file is body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// countLinks tallies wikilink targets, dropping aliases and empty targets.
func countLinks(body string) map[string]int {
	counts := make(map[string]int)
	for _, occ := range ParseWikilinks(body) {
		counts[occ.Target]++
	}
	return counts
}

// extractAliases reads the frontmatter "aliases" (or "alias") field, which
// may be a single string or a list of strings.
func extractAliases(fm map[string]interface{}) []string {
	if fm == nil {
		return nil
	}
	raw, ok := fm["aliases"]
	if !ok {
		raw = fm["alias"]
	}

	var items []interface{}
	switch v := raw.(type) {
	case string:
		items = []interface{}{v}
	case []interface{}:
		items = v
	default:
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/vaultlens/internal/models"
)

// ParseWikilinks returns every [[target]] / [[target|alias]] span in text in
// document order. Line and column are 1-indexed; columns count characters,
// not bytes. Spans whose target is blank are skipped.
func ParseWikilinks(text string) []models.WikilinkOccurrence {
	locs := wikilinkRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	out := make([]models.WikilinkOccurrence, 0, len(locs))
	line, lineStart, cursor := 1, 0, 0
	for _, loc := range locs {
		start := loc[0]
		// locs are ordered, so newlines are only counted once.
		seg := text[cursor:start]
		if n := strings.Count(seg, "\n"); n > 0 {
			line += n
			lineStart = cursor + strings.LastIndexByte(seg, '\n') + 1
		}
		cursor = start

		inner := text[loc[2]:loc[3]]
		target, alias, _ := strings.Cut(inner, "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		out = append(out, models.WikilinkOccurrence{
			Raw:    text[loc[0]:loc[1]],
			Target: target,
			Alias:  strings.TrimSpace(alias),
			Line:   line,
			Column: utf8.RuneCountInString(text[lineStart:start]) + 1,
		})
	}
	return out
}

// RawLinks returns the untouched interior of every [[...]] span, keeping any
// |alias suffix attached. Waypoint blocks list links this way.
func RawLinks(text string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// SplitLines splits text into lines, accepting both \n and \r\n endings.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

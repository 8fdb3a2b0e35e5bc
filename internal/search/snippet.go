package search

import (
	"unicode/utf8"

	"github.com/starford/vaultlens/internal/models"
)

// offsets converts byte offsets within one string to rune offsets.
type offsets struct {
	text  string
	ascii bool
}

func newOffsets(text string) offsets {
	return offsets{text: text, ascii: utf8.RuneCountInString(text) == len(text)}
}

func (o offsets) runes(byteOff int) int {
	if o.ascii {
		return byteOff
	}
	return utf8.RuneCountInString(o.text[:byteOff])
}

// Snippet cuts a window of at most length runes out of text, centred on the
// match [start, end) given in rune offsets. The window is shifted to stay
// inside text, and the returned range is relative to the window and clamped
// to it when the match is longer than the window.
func Snippet(text string, start, end, length int) (string, models.MatchRange) {
	n := utf8.RuneCountInString(text)
	if n <= length {
		return text, models.MatchRange{Start: start, End: end}
	}

	from := start - floorDiv(length-(end-start), 2)
	if from < 0 {
		from = 0
	}
	if from+length > n {
		from = n - length
	}

	r := []rune(text)
	window := string(r[from : from+length])
	return window, models.MatchRange{
		Start: clamp(start-from, 0, length),
		End:   clamp(end-from, 0, length),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

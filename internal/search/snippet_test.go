package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/vaultlens/internal/models"
)

func TestSnippet(t *testing.T) {
	text := strings.Repeat("a", 200)

	tests := []struct {
		name       string
		text       string
		start, end int
		length     int
		wantRange  models.MatchRange
		wantLen    int
	}{
		{"short text unchanged", "abc test", 4, 8, 100, models.MatchRange{Start: 4, End: 8}, 8},
		{"centred", text, 100, 104, 100, models.MatchRange{Start: 48, End: 52}, 100},
		{"clamped at start", text, 5, 9, 100, models.MatchRange{Start: 5, End: 9}, 100},
		{"clamped at end", text, 195, 199, 100, models.MatchRange{Start: 95, End: 99}, 100},
		{"match longer than window", text, 10, 150, 50, models.MatchRange{Start: 0, End: 50}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, r := Snippet(tt.text, tt.start, tt.end, tt.length)
			assert.Equal(t, tt.wantRange, r)
			assert.Len(t, []rune(got), tt.wantLen)
		})
	}
}

func TestSnippet_MultibyteWindow(t *testing.T) {
	text := strings.Repeat("é", 30) + "hit" + strings.Repeat("ü", 30)
	got, r := Snippet(text, 30, 33, 11)
	runes := []rune(got)
	assert.Len(t, runes, 11)
	assert.Equal(t, "hit", string(runes[r.Start:r.End]))
}

package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "ShortString", input: "upstream returned 502", limit: 512, want: "upstream returned 502"},
		{name: "ASCII", input: "abcdef", limit: 4, want: "abcd"},
		{name: "CutInsideRune", input: "abécd", limit: 3, want: "ab"},
		{name: "CutAfterRune", input: "abécd", limit: 4, want: "abé"},
		{name: "FourByteRune", input: "\U0001F600\U0001F600", limit: 6, want: "\U0001F600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}

	t.Run("AuditSummaryLimit", func(t *testing.T) {
		summary := "upstream unreachable: " + strings.Repeat("é", 400)
		got := truncate(summary, 512)
		assert.LessOrEqual(t, len(got), 512)
		assert.True(t, utf8.ValidString(got))
		assert.True(t, strings.HasPrefix(summary, got))
	})
}

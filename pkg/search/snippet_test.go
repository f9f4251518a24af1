package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSnippet(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		maxLen  int
		wantHas string
		wantPfx bool
		wantSfx bool
	}{
		{
			name:    "match in middle with ellipsis",
			content: "The quick brown fox jumps over the lazy dog and then keeps running forever",
			query:   "jumps",
			maxLen:  20,
			wantHas: "jumps",
			wantPfx: true,
			wantSfx: true,
		},
		{
			name:    "match at start",
			content: "Hello world this is a test",
			query:   "Hello",
			maxLen:  20,
			wantHas: "Hello",
			wantSfx: true,
		},
		{
			name:    "no match truncated beginning",
			content: "abcdefghijklmnopqrstuvwxyz",
			query:   "zzz",
			maxLen:  10,
			wantHas: "abcdefghij",
			wantSfx: true,
		},
		{
			name:    "short content returned as-is",
			content: "hi",
			query:   "missing",
			maxLen:  100,
			wantHas: "hi",
		},
		{
			name:    "case insensitive",
			content: "The Quick Brown Fox",
			query:   "quick",
			maxLen:  100,
			wantHas: "Quick",
		},
		{
			name:    "unicode safety",
			content: "こんにちは世界、テストです。Unicode文字列のテスト。",
			query:   "テスト",
			maxLen:  15,
			wantHas: "テスト",
			wantPfx: true,
			wantSfx: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSnippet(tt.content, tt.query, tt.maxLen)
			assert.Contains(t, got, tt.wantHas)
			assert.Equal(t, tt.wantPfx, strings.HasPrefix(got, "..."))
			assert.Equal(t, tt.wantSfx, strings.HasSuffix(got, "..."))
		})
	}
}

func TestExtractSnippet_EmptyContent(t *testing.T) {
	assert.Equal(t, "", ExtractSnippet("", "test", 50))
}

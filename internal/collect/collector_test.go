package collect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkessler/leadpulse/internal/types"
)

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace",
			input:    "  hello \n\t world  ",
			expected: "hello world",
		},
		{
			name:     "short content unchanged",
			input:    "a short signal",
			expected: "a short signal",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanContent(tt.input))
		})
	}
}

func TestCleanContentTruncation(t *testing.T) {
	long := strings.Repeat("word ", 300)
	cleaned := CleanContent(long)

	assert.LessOrEqual(t, len(cleaned), MaxContentLength+3)
	assert.True(t, strings.HasSuffix(cleaned, "..."))
	// Breaks at a word boundary, so no partial "wor" before the ellipsis.
	assert.True(t, strings.HasSuffix(strings.TrimSuffix(cleaned, "..."), "word"))
}

func TestCleanContentMultibyte(t *testing.T) {
	long := strings.Repeat("é", MaxContentLength)
	cleaned := CleanContent(long)

	assert.True(t, strings.HasSuffix(cleaned, "..."))
	for _, r := range cleaned {
		assert.NotEqual(t, '�', r)
	}
}

func TestMatchKeywords(t *testing.T) {
	vocabulary := []string{"auth", "oauth", "sso"}

	found := matchKeywords("We migrated OAuth and SSO last sprint", vocabulary)
	assert.Equal(t, []string{"auth", "oauth", "sso"}, found)

	assert.Empty(t, matchKeywords("nothing relevant here", vocabulary))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, containsAny("src/middleware/Auth.go", []string{"auth", "login"}))
	assert.False(t, containsAny("README.md", []string{"auth", "login"}))
}

func TestDedupeByContent(t *testing.T) {
	a := types.CandidateSignal{Category: types.CategoryForumDiscussion, Source: "reddit.com/r/netsec", Content: "post one"}
	b := types.CandidateSignal{Category: types.CategoryForumDiscussion, Source: "reddit.com/r/netsec", Content: "post one"}
	c := types.CandidateSignal{Category: types.CategoryForumDiscussion, Source: "reddit.com/r/devops", Content: "post one"}

	out := dedupeByContent([]types.CandidateSignal{a, b, c})
	assert.Len(t, out, 2)
}

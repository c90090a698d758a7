// Package collect defines the collector contract and the source-specific
// collectors that produce candidate signals for a lead.
package collect

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mkessler/leadpulse/internal/types"
)

// MaxContentLength bounds the content field of a candidate signal.
const MaxContentLength = 1000

// Collector fetches raw external data for one lead and converts it into zero
// or more candidate signals. Implementations own their confidence heuristics
// but must keep every score within [0,1]. A collector never talks to the
// signal store and never fails: source errors are logged and yield fewer
// candidates, and a collector without credentials returns an empty slice.
type Collector interface {
	Name() string
	Collect(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal
}

// CleanContent collapses whitespace and truncates to MaxContentLength,
// breaking at a word boundary when one is close enough and never splitting a
// UTF-8 sequence.
func CleanContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= MaxContentLength {
		return content
	}

	cut := MaxContentLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	truncated := content[:cut]

	// Prefer a word boundary unless it would cost too much of the budget.
	if idx := strings.LastIndexByte(truncated, ' '); idx > MaxContentLength-100 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}

// matchKeywords returns the vocabulary entries found in text, matching
// case-insensitively. The result preserves vocabulary order.
func matchKeywords(text string, vocabulary []string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, keyword := range vocabulary {
		if strings.Contains(lower, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}

// containsAny reports whether text contains any of the terms,
// case-insensitively.
func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

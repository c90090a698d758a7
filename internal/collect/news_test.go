package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/leadpulse/internal/types"
)

func TestNewsRelevance(t *testing.T) {
	lead := types.LeadSnapshot{CompanyName: "Acme", Domain: "acme.io", Industry: "Technology"}

	tests := []struct {
		name     string
		content  string
		expected float64
	}{
		{name: "company name only", content: "Acme raises series B", expected: 0.4},
		{name: "domain only", content: "visit acme.io for details", expected: 0.7}, // domain contains the name
		{name: "industry only", content: "technology sector outlook", expected: 0.2},
		{name: "security term only", content: "major data breach hits identity provider", expected: 0.1},
		{name: "all combined", content: "Acme (acme.io) leads technology security", expected: 1.0},
		{name: "nothing", content: "weather report", expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, newsRelevance(tt.content, lead), 1e-9)
		})
	}
}

func TestNewsCollect(t *testing.T) {
	response := `{
		"status": "ok",
		"articles": [
			{
				"title": "Acme adopts zero trust authentication",
				"description": "The company overhauls its identity stack",
				"url": "https://news.example.com/acme",
				"publishedAt": "2026-08-20T10:00:00Z",
				"source": {"name": "Example News"}
			},
			{
				"title": "Local bakery wins award",
				"description": "Croissants praised",
				"url": "https://news.example.com/bakery",
				"publishedAt": "2026-08-21T10:00:00Z",
				"source": {"name": "Example News"}
			}
		]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	defer server.Close()

	n := NewNews("test-key", 5*time.Second)
	n.baseURL = server.URL

	signals := n.Collect(context.Background(), types.LeadSnapshot{
		CompanyName: "Acme",
		Domain:      "acme.io",
		Industry:    "Technology",
	})

	// The bakery article never clears the threshold; the relevant one repeats
	// across queries and dedup keeps a single copy.
	require.Len(t, signals, 1)

	signal := signals[0]
	assert.Equal(t, types.CategoryNewsMention, signal.Category)
	assert.Equal(t, "newsapi", signal.Source)
	assert.InDelta(t, 0.5, signal.Confidence, 1e-9) // company name + security term
	assert.Contains(t, signal.Keywords, "authentication")
	assert.Equal(t, "https://news.example.com/acme", signal.Metadata["url"])
	assert.Equal(t, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC), signal.ObservedAt)
}

func TestNewsDisabledWithoutKey(t *testing.T) {
	n := NewNews("", 5*time.Second)

	signals := n.Collect(context.Background(), types.LeadSnapshot{CompanyName: "Acme", Domain: "acme.io"})
	assert.Empty(t, signals)
}

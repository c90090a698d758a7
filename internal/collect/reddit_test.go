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

func TestRedditRelevance(t *testing.T) {
	tests := []struct {
		name      string
		keywords  int
		pains     int
		mentioned bool
		expected  float64
	}{
		{name: "nothing matched keeps base", keywords: 0, pains: 0, mentioned: false, expected: 0.1},
		{name: "single keyword", keywords: 1, pains: 0, mentioned: false, expected: 0.25},
		{name: "keyword cap", keywords: 10, pains: 0, mentioned: false, expected: 0.6},
		{name: "pain bonus capped", keywords: 0, pains: 5, mentioned: false, expected: 0.4},
		{name: "company mention bonus", keywords: 0, pains: 0, mentioned: true, expected: 0.3},
		{name: "everything clamps to one", keywords: 10, pains: 5, mentioned: true, expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, redditRelevance(tt.keywords, tt.pains, tt.mentioned), 1e-9)
		})
	}
}

func TestRedditCollect(t *testing.T) {
	listing := `{
		"data": {
			"children": [
				{"data": {
					"id": "abc",
					"title": "Struggling with OAuth authentication at Acme",
					"selftext": "Our login system keeps failing",
					"subreddit": "netsec",
					"permalink": "/r/netsec/abc",
					"score": 42,
					"num_comments": 7,
					"created_utc": 1700000000
				}},
				{"data": {
					"id": "def",
					"title": "Best hiking trails this summer",
					"selftext": "",
					"subreddit": "netsec",
					"permalink": "/r/netsec/def",
					"score": 5,
					"num_comments": 1,
					"created_utc": 1700000000
				}}
			]
		}
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listing))
	}))
	defer server.Close()

	r := NewReddit("leadpulse-test/1.0", 5*time.Second)
	r.baseURL = server.URL

	signals := r.Collect(context.Background(), types.LeadSnapshot{
		CompanyName: "Acme",
		Domain:      "acme.io",
	})

	// Every subreddit and search returns the same two posts; one clears the
	// relevance threshold and in-run dedup collapses the repeats.
	require.Len(t, signals, 1)

	signal := signals[0]
	assert.Equal(t, types.CategoryForumDiscussion, signal.Category)
	assert.Equal(t, "reddit.com/r/netsec", signal.Source)
	assert.GreaterOrEqual(t, signal.Confidence, redditPostThreshold)
	assert.Contains(t, signal.Keywords, "oauth")
	assert.Equal(t, true, signal.Metadata["company_mentioned"])
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), signal.ObservedAt)
}

func TestRedditCollectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	r := NewReddit("leadpulse-test/1.0", 5*time.Second)
	r.baseURL = server.URL

	signals := r.Collect(context.Background(), types.LeadSnapshot{CompanyName: "Acme", Domain: "acme.io"})
	assert.Empty(t, signals)
}

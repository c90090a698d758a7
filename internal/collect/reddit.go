package collect

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkessler/leadpulse/internal/scoring"
	"github.com/mkessler/leadpulse/internal/types"
)

// Subreddits monitored for security/auth discussions.
var redditSubreddits = []string{
	"netsec", "security", "cybersecurity", "sysadmin", "devops",
	"programming", "webdev", "node", "python", "javascript",
	"aws", "azure", "startups", "SaaS",
}

var redditSecurityKeywords = []string{
	"authentication", "authorization", "auth", "login", "signin", "signup",
	"password", "oauth", "jwt", "token", "session", "security", "encryption",
	"2fa", "mfa", "two-factor", "multi-factor", "sso", "single-sign-on",
	"identity", "user management", "permissions", "roles", "rbac",
	"vulnerability", "breach", "password reset", "forgot password",
	"login system", "auth system", "identity provider", "idp",
}

// Phrases that indicate the author is struggling with something.
var redditPainIndicators = []string{
	"problem", "issue", "bug", "error", "failing", "broken",
	"help", "advice", "recommendation", "solution", "alternative",
	"struggling", "difficult", "complex", "complicated", "frustrated",
	"annoying", "pain", "headache", "nightmare", "terrible",
}

const redditPostThreshold = 0.3

// Reddit collects forum-discussion signals from the public Reddit JSON
// listings. No OAuth credentials are needed, only a descriptive user agent.
type Reddit struct {
	client    *http.Client
	userAgent string
	baseURL   string
}

// NewReddit builds a Reddit collector.
func NewReddit(userAgent string, timeout time.Duration) *Reddit {
	return &Reddit{
		client:    newHTTPClient(timeout),
		userAgent: userAgent,
		baseURL:   "https://www.reddit.com",
	}
}

func (r *Reddit) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Subreddit  string  `json:"subreddit"`
	Permalink  string  `json:"permalink"`
	Score      int     `json:"score"`
	Comments   int     `json:"num_comments"`
	CreatedUTC float64 `json:"created_utc"`
}

// Collect scans security-focused subreddits and company searches for relevant
// discussions. Each listing fetch is isolated; a failed subreddit contributes
// nothing.
func (r *Reddit) Collect(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal {
	var signals []types.CandidateSignal

	for _, subreddit := range redditSubreddits {
		listing, err := r.fetchListing(ctx, fmt.Sprintf("%s/r/%s/hot.json", r.baseURL, subreddit), url.Values{
			"limit": {"25"},
		})
		if err != nil {
			log.Printf("collect: reddit listing failed for r/%s: %v", subreddit, err)
			continue
		}
		signals = append(signals, r.analyzePosts(listing, lead)...)
	}

	for _, query := range r.searchQueries(lead) {
		listing, err := r.fetchListing(ctx, r.baseURL+"/search.json", url.Values{
			"q":     {query},
			"sort":  {"relevance"},
			"t":     {"month"},
			"limit": {"10"},
		})
		if err != nil {
			log.Printf("collect: reddit search failed for %q: %v", query, err)
			continue
		}
		signals = append(signals, r.analyzePosts(listing, lead)...)
	}

	return dedupeByContent(signals)
}

func (r *Reddit) fetchListing(ctx context.Context, rawURL string, params url.Values) (*redditListing, error) {
	subCtx, cancel := context.WithTimeout(ctx, r.client.Timeout)
	defer cancel()

	var listing redditListing
	err := getJSON(subCtx, r.client, rawURL, params, map[string]string{"User-Agent": r.userAgent}, &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *Reddit) searchQueries(lead types.LeadSnapshot) []string {
	return []string{
		fmt.Sprintf("%q authentication", lead.CompanyName),
		fmt.Sprintf("%q security", lead.CompanyName),
		fmt.Sprintf("%q auth", lead.CompanyName),
		fmt.Sprintf("%q authentication", lead.Domain),
	}
}

func (r *Reddit) analyzePosts(listing *redditListing, lead types.LeadSnapshot) []types.CandidateSignal {
	var signals []types.CandidateSignal
	for _, child := range listing.Data.Children {
		post := child.Data
		fullText := post.Title + " " + post.SelfText

		keywords := matchKeywords(fullText, redditSecurityKeywords)
		pains := matchKeywords(fullText, redditPainIndicators)
		mentioned := companyMentioned(fullText, lead)

		relevance := redditRelevance(len(keywords), len(pains), mentioned)
		if relevance < redditPostThreshold {
			continue
		}

		signals = append(signals, types.CandidateSignal{
			Category:   types.CategoryForumDiscussion,
			Source:     "reddit.com/r/" + post.Subreddit,
			Content:    CleanContent("Security discussion: " + post.Title),
			Confidence: relevance,
			Relevance:  relevance,
			Keywords:   keywords,
			Metadata: map[string]any{
				"subreddit":         post.Subreddit,
				"post_id":           post.ID,
				"post_url":          "https://reddit.com" + post.Permalink,
				"score":             post.Score,
				"num_comments":      post.Comments,
				"pain_indicators":   pains,
				"company_mentioned": mentioned,
			},
			ObservedAt: time.Unix(int64(post.CreatedUTC), 0).UTC(),
		})
	}
	return signals
}

// redditRelevance scores a post: keyword density on security terms, a smaller
// bonus per pain indicator, and a fixed bonus when the company is named.
func redditRelevance(keywords, pains int, companyMentioned bool) float64 {
	score := scoring.KeywordDensity(0.1, 0.15, 0.5, keywords)
	painBonus := float64(pains) * 0.1
	if painBonus > 0.3 {
		painBonus = 0.3
	}
	if companyMentioned {
		score += 0.2
	}
	return scoring.Clamp01(score + painBonus)
}

func companyMentioned(text string, lead types.LeadSnapshot) bool {
	lower := strings.ToLower(text)
	if lead.CompanyName != "" && strings.Contains(lower, strings.ToLower(lead.CompanyName)) {
		return true
	}
	return lead.Domain != "" && strings.Contains(lower, strings.ToLower(lead.Domain))
}

// dedupeByContent drops candidates that repeat an earlier (category, source,
// content) triple within the same run; the store enforces the same key across
// runs.
func dedupeByContent(signals []types.CandidateSignal) []types.CandidateSignal {
	seen := make(map[string]bool, len(signals))
	out := signals[:0]
	for _, s := range signals {
		key := string(s.Category) + "\x00" + s.Source + "\x00" + s.Content
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

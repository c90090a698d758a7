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

var newsSecurityKeywords = []string{
	"authentication", "authorization", "identity management",
	"single sign-on", "sso", "oauth", "saml", "jwt",
	"password security", "multi-factor authentication", "mfa",
	"zero trust", "api security", "data breach", "cybersecurity",
}

// Extra query terms per industry; "default" applies when the lead's industry
// has no specific list.
var newsIndustryKeywords = map[string][]string{
	"Technology": {"SaaS security", "cloud security", "devops security"},
	"Finance":    {"fintech security", "payment security", "compliance"},
	"Healthcare": {"HIPAA", "healthcare security", "patient data"},
	"default":    {"enterprise security", "business security"},
}

var newsAuthKeywords = []string{
	"authentication platform", "identity provider", "idp",
	"user management", "access control", "identity verification",
}

// Keywords extracted into the signal for explainability.
var newsExtractKeywords = []string{
	"authentication", "authorization", "identity", "security",
	"sso", "oauth", "saml", "jwt", "mfa", "password", "login",
}

const newsRelevanceThreshold = 0.3

// News collects news-mention signals from NewsAPI. Without an API key the
// collector is disabled.
type News struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewNews builds a News collector. An empty API key disables it.
func NewNews(apiKey string, timeout time.Duration) *News {
	return &News{
		client:  newHTTPClient(timeout),
		apiKey:  apiKey,
		baseURL: "https://newsapi.org/v2",
	}
}

func (n *News) Name() string { return "news" }

type newsResponse struct {
	Status   string        `json:"status"`
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// Collect searches for direct company mentions, industry security news and
// auth-platform news, keeping only articles that clear the relevance
// threshold.
func (n *News) Collect(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal {
	if n.apiKey == "" {
		log.Printf("collect: news api key not configured, skipping %s", lead.Domain)
		return nil
	}

	var signals []types.CandidateSignal

	// Direct company mentions over the last month.
	for _, term := range []string{lead.CompanyName, lead.Domain} {
		signals = append(signals, n.search(ctx, lead, term, 30, 10)...)
	}

	// Industry-scoped security news over the last week.
	industryTerms := newsIndustryKeywords[lead.Industry]
	if industryTerms == nil {
		industryTerms = newsIndustryKeywords["default"]
	}
	for _, keyword := range append(newsSecurityKeywords[:5:5], industryTerms...) {
		query := fmt.Sprintf("%q AND %q", keyword, lead.Industry)
		signals = append(signals, n.search(ctx, lead, query, 7, 5)...)
	}

	// Authentication/identity platform news over the last two weeks.
	for _, keyword := range newsAuthKeywords[:3] {
		signals = append(signals, n.search(ctx, lead, keyword, 14, 3)...)
	}

	return dedupeByContent(signals)
}

func (n *News) search(ctx context.Context, lead types.LeadSnapshot, query string, windowDays, pageSize int) []types.CandidateSignal {
	subCtx, cancel := context.WithTimeout(ctx, n.client.Timeout)
	defer cancel()

	var resp newsResponse
	err := getJSON(subCtx, n.client, n.baseURL+"/everything", url.Values{
		"q":        {query},
		"apiKey":   {n.apiKey},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {fmt.Sprint(pageSize)},
		"from":     {time.Now().AddDate(0, 0, -windowDays).Format("2006-01-02")},
	}, nil, &resp)
	if err != nil {
		log.Printf("collect: news search failed for %q: %v", query, err)
		return nil
	}
	if resp.Status != "ok" {
		log.Printf("collect: news search returned status %q for %q", resp.Status, query)
		return nil
	}

	var signals []types.CandidateSignal
	for _, article := range resp.Articles {
		if signal, ok := n.signalFromArticle(article, lead); ok {
			signals = append(signals, signal)
		}
	}
	return signals
}

func (n *News) signalFromArticle(article newsArticle, lead types.LeadSnapshot) (types.CandidateSignal, bool) {
	content := strings.TrimSpace(article.Title + " " + article.Description)
	relevance := newsRelevance(content, lead)
	if relevance < newsRelevanceThreshold {
		return types.CandidateSignal{}, false
	}

	keywords := matchKeywords(content, newsExtractKeywords)
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}

	observedAt := time.Time{}
	if t, err := time.Parse(time.RFC3339, article.PublishedAt); err == nil {
		observedAt = t
	}

	return types.CandidateSignal{
		Category:   types.CategoryNewsMention,
		Source:     "newsapi",
		Content:    CleanContent(content),
		Confidence: relevance,
		Relevance:  relevance,
		Keywords:   keywords,
		Metadata: map[string]any{
			"title":       article.Title,
			"url":         article.URL,
			"source_name": article.Source.Name,
		},
		ObservedAt: observedAt,
	}, true
}

// newsRelevance scores an article for one lead: strong bonus for naming the
// company or its domain, smaller ones for the industry and for any security
// term.
func newsRelevance(content string, lead types.LeadSnapshot) float64 {
	lower := strings.ToLower(content)
	var score float64

	if lead.CompanyName != "" && strings.Contains(lower, strings.ToLower(lead.CompanyName)) {
		score += 0.4
	}
	if lead.Domain != "" && strings.Contains(lower, strings.ToLower(lead.Domain)) {
		score += 0.3
	}
	if lead.Industry != "" && strings.Contains(lower, strings.ToLower(lead.Industry)) {
		score += 0.2
	}
	if containsAny(lower, []string{"security", "authentication", "identity", "auth", "sso", "oauth"}) {
		score += 0.1
	}
	return scoring.Clamp01(score)
}

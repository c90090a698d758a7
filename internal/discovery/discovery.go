// Package discovery finds new candidate leads from public sources that show
// security or authentication intent.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"github.com/mkessler/leadpulse/internal/db"
	"github.com/mkessler/leadpulse/internal/types"
)

// Repository searches that surface companies struggling with auth.
var githubDiscoveryQueries = []string{
	"authentication issues",
	"login problems",
	"password security",
	"auth system broken",
	"OAuth implementation",
	"SSO problems",
}

// News searches that surface companies in the security space.
var newsDiscoveryQueries = []string{
	"authentication platform",
	"identity management",
	"cybersecurity company",
	"data breach",
	"security software",
}

// Store persists discovered leads. Insertion is idempotent on domain; a nil
// lead with nil error means the domain already existed.
type Store interface {
	InsertDiscoveredLead(ctx context.Context, lead types.DiscoveredLead) (*db.Lead, error)
}

// Service runs lead discovery across GitHub and NewsAPI. Sources without
// credentials are skipped.
type Service struct {
	store      Store
	gh         *github.Client
	httpClient *http.Client
	newsAPIKey string
	newsURL    string
}

// New builds a discovery service. Empty credentials disable the matching
// source rather than erroring.
func New(store Store, githubToken, newsAPIKey string, timeout time.Duration) *Service {
	s := &Service{
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
		newsAPIKey: newsAPIKey,
		newsURL:    "https://newsapi.org/v2",
	}
	if githubToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: githubToken})
		s.gh = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}
	return s
}

// Run discovers candidates from every configured source and inserts the ones
// whose domain is not already known. It returns the number of new leads.
// Source failures are logged and skipped; Run only fails on persistence
// errors.
func (s *Service) Run(ctx context.Context) (int, error) {
	var candidates []*types.DiscoveredLead
	candidates = append(candidates, s.fromGitHub(ctx)...)
	candidates = append(candidates, s.fromNews(ctx)...)

	inserted := 0
	for _, candidate := range candidates {
		lead, err := s.store.InsertDiscoveredLead(ctx, *candidate)
		if err != nil {
			return inserted, fmt.Errorf("failed to save discovered lead %s: %w", candidate.Domain, err)
		}
		if lead != nil {
			log.Printf("discovery: added lead %s (%s) from %s", candidate.CompanyName, candidate.Domain, candidate.Source)
			inserted++
		}
	}
	return inserted, nil
}

func (s *Service) fromGitHub(ctx context.Context) []*types.DiscoveredLead {
	if s.gh == nil {
		log.Printf("discovery: github token not configured, skipping")
		return nil
	}

	var leads []*types.DiscoveredLead
	for _, query := range githubDiscoveryQueries {
		result, _, err := s.gh.Search.Repositories(ctx, query, &github.SearchOptions{
			Sort:        "updated",
			Order:       "desc",
			ListOptions: github.ListOptions{PerPage: 10},
		})
		if err != nil {
			log.Printf("discovery: github search failed for %q: %v", query, err)
			continue
		}
		for _, repo := range result.Repositories {
			if lead := leadFromRepo(repo); lead != nil {
				leads = append(leads, lead)
			}
		}
	}
	return leads
}

// leadFromRepo turns a repository into a candidate lead. Repositories whose
// text yields no company domain are dropped.
func leadFromRepo(repo *github.Repository) *types.DiscoveredLead {
	domain := ExtractDomain(repo.GetHomepage() + " " + repo.GetDescription())
	if domain == "" {
		return nil
	}

	description := repo.GetDescription()
	if description == "" {
		description = "GitHub repository: " + repo.GetFullName()
	}

	var techStack []string
	if lang := repo.GetLanguage(); lang != "" {
		techStack = append(techStack, lang)
	}
	techStack = append(techStack, repo.Topics...)

	return &types.DiscoveredLead{
		CompanyName:   CompanyNameFromRepo(repo.GetFullName()),
		Domain:        domain,
		Industry:      "Technology",
		EmployeeCount: 50,
		RevenueRange:  "1M-10M",
		Location:      "Unknown",
		Description:   description,
		PrimaryTech:   repo.GetLanguage(),
		TechStack:     techStack,
		Source:        "github",
		SourceURL:     repo.GetHTMLURL(),
		IntentScore:   0.7,
	}
}

type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"articles"`
}

func (s *Service) fromNews(ctx context.Context) []*types.DiscoveredLead {
	if s.newsAPIKey == "" {
		log.Printf("discovery: news api key not configured, skipping")
		return nil
	}

	var leads []*types.DiscoveredLead
	for _, query := range newsDiscoveryQueries {
		resp, err := s.searchNews(ctx, query)
		if err != nil {
			log.Printf("discovery: news search failed for %q: %v", query, err)
			continue
		}
		for _, article := range resp.Articles {
			if lead := leadFromArticle(article.Title, article.Description, article.URL); lead != nil {
				leads = append(leads, lead)
			}
		}
	}
	return leads
}

func (s *Service) searchNews(ctx context.Context, query string) (*newsResponse, error) {
	u, err := url.Parse(s.newsURL + "/everything")
	if err != nil {
		return nil, fmt.Errorf("failed to parse news URL: %w", err)
	}
	u.RawQuery = url.Values{
		"q":        {query},
		"apiKey":   {s.newsAPIKey},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {"10"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from newsapi", resp.StatusCode)
	}

	var parsed newsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &parsed, nil
}

// leadFromArticle turns a news article into a candidate lead. Articles that
// yield no company name or domain are dropped.
func leadFromArticle(title, description, articleURL string) *types.DiscoveredLead {
	text := title + " " + description

	name := CompanyNameFromNews(text)
	domain := ExtractDomain(text)
	if name == "" || domain == "" {
		return nil
	}

	if len(description) > 200 {
		description = description[:200] + "..."
	}

	return &types.DiscoveredLead{
		CompanyName:   name,
		Domain:        domain,
		Industry:      ClassifyIndustry(text),
		EmployeeCount: 100,
		RevenueRange:  "10M-50M",
		Location:      "Unknown",
		Description:   description,
		Source:        "news",
		SourceURL:     articleURL,
		IntentScore:   0.8,
	}
}

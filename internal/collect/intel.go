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

var intelSecurityKeywords = []string{
	"security", "authentication", "identity", "auth", "sso", "oauth",
	"cybersecurity", "data protection", "privacy", "compliance",
	"encryption", "access control", "user management",
}

var intelTechKeywords = []string{
	"software", "platform", "solution", "technology", "digital",
	"cloud", "saas", "api", "integration", "automation",
}

// Intel collects company-intelligence signals from the Logo.dev company API.
// Without an API key the collector is disabled.
type Intel struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewIntel builds a company-intelligence collector. An empty API key disables it.
func NewIntel(apiKey string, timeout time.Duration) *Intel {
	return &Intel{
		client:  newHTTPClient(timeout),
		apiKey:  apiKey,
		baseURL: "https://api.logo.dev",
	}
}

func (i *Intel) Name() string { return "company-intel" }

type intelResponse struct {
	Success     bool   `json:"success"`
	Logo        string `json:"logo"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
}

// Collect looks up company data and mines the description for security and
// technology focus.
func (i *Intel) Collect(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal {
	if i.apiKey == "" {
		log.Printf("collect: logo.dev api key not configured, skipping %s", lead.Domain)
		return nil
	}

	var signals []types.CandidateSignal
	for _, endpoint := range []string{"/logo", "/company"} {
		data, err := i.lookup(ctx, endpoint, lead.Domain)
		if err != nil {
			log.Printf("collect: company lookup %s failed for %s: %v", endpoint, lead.Domain, err)
			continue
		}
		if !data.Success {
			continue
		}
		signals = append(signals, i.analyze(data, lead)...)
	}
	return dedupeByContent(signals)
}

func (i *Intel) lookup(ctx context.Context, endpoint, domain string) (*intelResponse, error) {
	subCtx, cancel := context.WithTimeout(ctx, i.client.Timeout)
	defer cancel()

	var data intelResponse
	err := getJSON(subCtx, i.client, i.baseURL+endpoint, url.Values{
		"token":  {i.apiKey},
		"domain": {domain},
	}, nil, &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (i *Intel) analyze(data *intelResponse, lead types.LeadSnapshot) []types.CandidateSignal {
	var signals []types.CandidateSignal

	description := data.Description
	securityFound := matchKeywords(description, intelSecurityKeywords)
	techFound := matchKeywords(description, intelTechKeywords)

	// Overall company relevance: a weighted average over binary presence
	// factors (description, logo, security focus, tech focus).
	relevance := scoring.WeightedAverage(map[string]scoring.Factor{
		"has_description": {Score: boolScore(description != ""), Weight: 0.3},
		"has_logo":        {Score: boolScore(data.Logo != ""), Weight: 0.2},
		"security_focus":  {Score: boolScore(len(securityFound) > 0), Weight: 0.3},
		"tech_focus":      {Score: boolScore(len(techFound) > 0), Weight: 0.2},
	})

	content := description
	if content == "" {
		content = "No description available"
	}
	signals = append(signals, types.CandidateSignal{
		Category:   types.CategoryCompanyIntelligence,
		Source:     "logo.dev",
		Content:    CleanContent(fmt.Sprintf("Company intelligence for %s: %s", lead.CompanyName, content)),
		Confidence: relevance,
		Keywords:   append(securityFound, techFound...),
		Metadata: map[string]any{
			"logo_url":    data.Logo,
			"description": description,
			"industry":    data.Industry,
		},
	})

	if len(securityFound) > 0 {
		signals = append(signals, types.CandidateSignal{
			Category:   types.CategoryCompanyIntelligence,
			Source:     "logo.dev",
			Content:    CleanContent(fmt.Sprintf("Security-related keywords found in %s description: %s", lead.CompanyName, strings.Join(securityFound, ", "))),
			Confidence: 0.8,
			Keywords:   securityFound,
			Metadata:   map[string]any{"description": description},
		})
	}

	if len(techFound) > 0 {
		signals = append(signals, types.CandidateSignal{
			Category:   types.CategoryCompanyIntelligence,
			Source:     "logo.dev",
			Content:    CleanContent(fmt.Sprintf("Tech-focused description analysis for %s: %s", lead.CompanyName, strings.Join(techFound, ", "))),
			Confidence: scoring.Clamp01(float64(len(techFound)) * 0.2),
			Keywords:   techFound,
			Metadata:   map[string]any{"tech_keywords": techFound},
		})
	}

	return signals
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

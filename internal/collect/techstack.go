package collect

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mkessler/leadpulse/internal/fetch"
	"github.com/mkessler/leadpulse/internal/scoring"
	"github.com/mkessler/leadpulse/internal/types"
)

// techPatterns maps a technology group to named technologies and the content
// patterns that betray them. Matching is case-insensitive against the raw
// HTML.
var techPatterns = map[string]map[string][]string{
	"frameworks": {
		"React":         {`react`, `__REACT_DEVTOOLS_GLOBAL_HOOK__`},
		"Vue.js":        {`vue`, `__VUE__`},
		"Angular":       {`angular`, `ng-`},
		"Django":        {`django`, `csrfmiddlewaretoken`},
		"Flask":         {`flask`, `werkzeug`},
		"Express":       {`express`, `__express`},
		"Laravel":       {`laravel`, `XSRF-TOKEN`},
		"Ruby on Rails": {`rails`, `_rails`},
		"Spring":        {`spring`, `org\.springframework`},
		"ASP.NET":       {`asp\.net`, `__VIEWSTATE`},
	},
	"databases": {
		"PostgreSQL": {`postgresql`, `postgres`},
		"MySQL":      {`mysql`, `mysqli`},
		"MongoDB":    {`mongodb`, `mongo`},
		"Redis":      {`redis`},
		"SQLite":     {`sqlite`, `sqlite3`},
	},
	"cloud_platforms": {
		"AWS":          {`amazonaws\.com`, `cloudfront`},
		"Azure":        {`azure`, `microsoft\.com/azure`},
		"Google Cloud": {`googleapis\.com`, `google\.com/cloud`},
		"Heroku":       {`herokuapp\.com`},
		"Vercel":       {`vercel\.app`},
		"Netlify":      {`netlify\.app`},
	},
	"security": {
		"Auth0":         {`auth0`, `auth0\.com`},
		"Okta":          {`okta`, `okta\.com`},
		"OneLogin":      {`onelogin`, `onelogin\.com`},
		"Ping Identity": {`pingidentity\.com`},
		"AWS Cognito":   {`cognito`, `cognito-idp`},
		"Firebase Auth": {`firebase`, `firebase\.google\.com`},
	},
	"analytics": {
		"Google Analytics": {`ga\(`, `google-analytics`, `gtag`},
		"Mixpanel":         {`mixpanel`, `mixpanel\.com`},
		"Segment":          {`segment\.com`},
		"Hotjar":           {`hotjar`, `hotjar\.com`},
	},
}

// headerIndicators maps a group to technologies detectable from response
// header names.
var headerIndicators = map[string]map[string][]string{
	"frameworks": {
		"Django":  {"csrftoken", "sessionid"},
		"Laravel": {"laravel_session", "xsrf-token"},
		"Express": {"x-powered-by", "connect.sid"},
		"ASP.NET": {"asp.net_sessionid", "__viewstate"},
	},
	"security": {
		"Cloudflare": {"cf-ray", "cf-cache-status"},
		"AWS":        {"x-amz-cf-id", "x-amz-id-2"},
		"Azure":      {"x-azure-ref", "x-ms-version"},
	},
}

// Well-known paths whose mere presence suggests an in-house auth surface.
var securityEndpoints = []string{
	"/auth", "/login", "/oauth", "/saml", "/sso",
	"/admin", "/api/auth", "/identity", "/user",
}

var compiledTechPatterns = compileTechPatterns()

func compileTechPatterns() map[string]map[string][]*regexp.Regexp {
	compiled := make(map[string]map[string][]*regexp.Regexp, len(techPatterns))
	for group, techs := range techPatterns {
		compiled[group] = make(map[string][]*regexp.Regexp, len(techs))
		for tech, patterns := range techs {
			for _, p := range patterns {
				compiled[group][tech] = append(compiled[group][tech], regexp.MustCompile(`(?i)`+p))
			}
		}
	}
	return compiled
}

// TechStack analyzes a lead's website for its technology stack and probes for
// authentication endpoints. It needs no credentials; when a BuiltWith API key
// is configured it additionally queries the BuiltWith technographic API.
type TechStack struct {
	client       *http.Client
	builtWithKey string
	builtWithURL string
	useBrowser   bool

	// siteURL overrides the https://<domain> target; tests point it at a
	// local server.
	siteURL string
}

// NewTechStack builds the tech-stack analyzer.
func NewTechStack(builtWithKey string, useBrowser bool, timeout time.Duration) *TechStack {
	return &TechStack{
		client:       newHTTPClient(timeout),
		builtWithKey: builtWithKey,
		builtWithURL: "https://api.builtwith.com/v20",
		useBrowser:   useBrowser,
	}
}

func (t *TechStack) Name() string { return "techstack" }

// Collect fetches the lead's site and derives tech-stack and
// security-endpoint signals. The website analysis needs no credentials, so
// this collector always runs.
func (t *TechStack) Collect(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal {
	siteURL := t.siteURL
	if siteURL == "" {
		siteURL = "https://" + lead.Domain
	}

	var signals []types.CandidateSignal

	result, err := fetch.URL(ctx, siteURL, &fetch.Options{
		Timeout:   t.client.Timeout,
		UserAgent: fetch.DefaultUserAgent,
	})
	if err != nil && result == nil {
		log.Printf("collect: website fetch failed for %s: %v", lead.Domain, err)
	} else if result != nil {
		html := t.maybeRender(ctx, siteURL, result.HTML)
		if s, ok := t.analyzeHTML(html, lead); ok {
			signals = append(signals, s)
		}
		if s, ok := t.analyzeHeaders(result.Headers, lead); ok {
			signals = append(signals, s)
		}
	}

	if s, ok := t.probeSecurityEndpoints(ctx, siteURL, lead); ok {
		signals = append(signals, s)
	}

	if t.builtWithKey != "" {
		signals = append(signals, t.collectBuiltWith(ctx, lead)...)
	}

	return signals
}

// maybeRender falls back to a headless browser when the static document has
// almost no visible text, which usually means a JS-rendered SPA.
func (t *TechStack) maybeRender(ctx context.Context, siteURL, html string) string {
	if !t.useBrowser {
		return html
	}
	text, err := fetch.HTMLToText(html)
	if err != nil || len(text) >= 200 {
		return html
	}
	rendered, err := fetch.RenderedHTML(ctx, siteURL)
	if err != nil {
		log.Printf("collect: browser render failed for %s: %v", siteURL, err)
		return html
	}
	return rendered
}

func (t *TechStack) analyzeHTML(html string, lead types.LeadSnapshot) (types.CandidateSignal, bool) {
	found := make(map[string][]string)
	for group, techs := range compiledTechPatterns {
		for tech, patterns := range techs {
			for _, pattern := range patterns {
				if pattern.MatchString(html) {
					found[group] = append(found[group], tech)
					break
				}
			}
		}
	}
	if len(found) == 0 {
		return types.CandidateSignal{}, false
	}

	total := 0
	var keywords []string
	for _, techs := range found {
		sort.Strings(techs)
		total += len(techs)
		keywords = append(keywords, techs...)
	}
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}

	return types.CandidateSignal{
		Category:   types.CategoryTechStack,
		Source:     "techstack",
		Content:    CleanContent(fmt.Sprintf("Tech stack analysis for %s: %s", lead.CompanyName, formatTechGroups(found))),
		Confidence: scoring.Clamp01(float64(total) * 0.2),
		Keywords:   keywords,
		Metadata: map[string]any{
			"technologies":       found,
			"total_technologies": total,
		},
	}, true
}

func (t *TechStack) analyzeHeaders(headers http.Header, lead types.LeadSnapshot) (types.CandidateSignal, bool) {
	lowered := make([]string, 0, len(headers))
	for key := range headers {
		lowered = append(lowered, strings.ToLower(key))
	}

	found := make(map[string][]string)
	for group, techs := range headerIndicators {
		for tech, indicators := range techs {
			for _, indicator := range indicators {
				matched := false
				for _, key := range lowered {
					if strings.Contains(key, indicator) {
						matched = true
						break
					}
				}
				if matched {
					found[group] = append(found[group], tech)
					break
				}
			}
		}
	}
	if len(found) == 0 {
		return types.CandidateSignal{}, false
	}

	var keywords []string
	for _, techs := range found {
		sort.Strings(techs)
		keywords = append(keywords, techs...)
	}

	return types.CandidateSignal{
		Category:   types.CategoryTechStack,
		Source:     "techstack",
		Content:    CleanContent(fmt.Sprintf("Header-based tech detection for %s: %s", lead.CompanyName, formatTechGroups(found))),
		Confidence: 0.7,
		Keywords:   keywords,
		Metadata:   map[string]any{"header_technologies": found},
	}, true
}

// probeSecurityEndpoints HEAD-requests well-known auth paths. Responses that
// are not hard 404s (including 401/403) count as present.
func (t *TechStack) probeSecurityEndpoints(ctx context.Context, siteURL string, lead types.LeadSnapshot) (types.CandidateSignal, bool) {
	var found []string
	for _, endpoint := range securityEndpoints {
		status, err := fetch.Head(ctx, siteURL+endpoint, &fetch.Options{
			Timeout:   t.client.Timeout,
			UserAgent: fetch.DefaultUserAgent,
		})
		if err != nil {
			continue
		}
		switch status {
		case http.StatusOK, http.StatusMovedPermanently, http.StatusFound,
			http.StatusUnauthorized, http.StatusForbidden:
			found = append(found, endpoint)
		}
	}
	if len(found) == 0 {
		return types.CandidateSignal{}, false
	}

	return types.CandidateSignal{
		Category:   types.CategorySecurityEndpoint,
		Source:     "techstack",
		Content:    CleanContent(fmt.Sprintf("Security endpoints detected for %s: %s", lead.CompanyName, strings.Join(found, ", "))),
		Confidence: 0.6,
		Keywords:   found,
		Metadata:   map[string]any{"security_endpoints": found},
	}, true
}

func formatTechGroups(found map[string][]string) string {
	groups := make([]string, 0, len(found))
	for group := range found {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		parts = append(parts, fmt.Sprintf("%s: %s", group, strings.Join(found[group], ", ")))
	}
	return strings.Join(parts, "; ")
}

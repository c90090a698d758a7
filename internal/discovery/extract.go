package discovery

import (
	"regexp"
	"strings"
)

// Domain patterns tried in order: explicit URL, www-prefixed, bare domain.
var domainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
	regexp.MustCompile(`www\.([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
	regexp.MustCompile(`\b([a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,})\b`),
}

// Hosts that appear in source URLs but never identify the company itself,
// plus tech names that look like bare domains in prose ("node.js").
var excludedDomains = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
	"reddit.com":     true,
	"www.reddit.com": true,
	"newsapi.org":    true,
	"twitter.com":    true,
	"linkedin.com":   true,
	"node.js":        true,
	"vue.js":         true,
	"react.js":       true,
	"next.js":        true,
	"nuxt.js":        true,
	"angular.js":     true,
	"ember.js":       true,
	"backbone.js":    true,
	"express.js":     true,
	"three.js":       true,
	"d3.js":          true,
	"asp.net":        true,
	"vb.net":         true,
}

// Company-name patterns for news text: a capitalized sequence followed by a
// corporate suffix or an announcement verb.
var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Inc|Corp|LLC|Ltd)\b`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+announces`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+reports`),
}

var industryBuckets = []struct {
	industry string
	terms    []string
}{
	{"Finance", []string{"finance", "banking", "fintech"}},
	{"Healthcare", []string{"healthcare", "medical", "health"}},
	{"Education", []string{"education", "learning"}},
}

// ExtractDomain pulls the first plausible company domain out of free text,
// skipping hosts that belong to the source platforms themselves. Empty result
// means no domain was found.
func ExtractDomain(text string) string {
	for _, pattern := range domainPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			domain := strings.ToLower(strings.Trim(match[1], "."))
			if excludedDomains[domain] {
				continue
			}
			return domain
		}
	}
	return ""
}

// CompanyNameFromRepo derives a readable company name from a repository
// owner login ("acme-security" becomes "Acme Security").
func CompanyNameFromRepo(fullName string) string {
	owner := fullName
	if idx := strings.IndexByte(fullName, '/'); idx >= 0 {
		owner = fullName[:idx]
	}
	for _, suffix := range []string{"-inc", "-llc", "-corp", "inc", "llc", "corp"} {
		owner = strings.TrimSuffix(strings.ToLower(owner), suffix)
	}
	owner = strings.ReplaceAll(owner, "-", " ")
	owner = strings.ReplaceAll(owner, "_", " ")
	return titleCase(strings.TrimSpace(owner))
}

// CompanyNameFromNews extracts a company name from article text, or "" when
// no pattern matches.
func CompanyNameFromNews(text string) string {
	for _, pattern := range companyNamePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1]
		}
	}
	return ""
}

// ClassifyIndustry buckets article text into a coarse industry, defaulting to
// Technology.
func ClassifyIndustry(text string) string {
	lower := strings.ToLower(text)
	for _, bucket := range industryBuckets {
		for _, term := range bucket.terms {
			if strings.Contains(lower, term) {
				return bucket.industry
			}
		}
	}
	return "Technology"
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

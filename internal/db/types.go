package db

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkessler/leadpulse/internal/types"
)

// Lead is a tracked company and its current scores.
type Lead struct {
	ID             uuid.UUID                  `json:"id"`
	CompanyName    string                     `json:"company_name"`
	Domain         string                     `json:"domain"`
	Industry       string                     `json:"industry,omitempty"`
	EmployeeCount  *int                       `json:"employee_count,omitempty"`
	RevenueRange   string                     `json:"revenue_range,omitempty"`
	Location       string                     `json:"location,omitempty"`
	Description    string                     `json:"description,omitempty"`
	PrimaryTech    string                     `json:"primary_tech,omitempty"`
	TechStack      []string                   `json:"tech_stack,omitempty"`
	IntentScore    float64                    `json:"intent_score"`
	CategoryScores map[types.Category]float64 `json:"category_scores"`
	IsActive       bool                       `json:"is_active"`
	CreatedAt      time.Time                  `json:"created_at"`
	LastUpdated    time.Time                  `json:"last_updated"`
}

// Snapshot returns the read-only view handed to collectors.
func (l *Lead) Snapshot() types.LeadSnapshot {
	return types.LeadSnapshot{
		ID:          l.ID,
		CompanyName: l.CompanyName,
		Domain:      l.Domain,
		Industry:    l.Industry,
		PrimaryTech: l.PrimaryTech,
	}
}

// Signal is one persisted observation about a lead. Rows are append-only.
type Signal struct {
	ID         uuid.UUID      `json:"id"`
	LeadID     uuid.UUID      `json:"lead_id"`
	Category   types.Category `json:"category"`
	Source     string         `json:"source"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence"`
	Relevance  float64        `json:"relevance,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Keywords   []string       `json:"keywords,omitempty"`
	ObservedAt time.Time      `json:"observed_at"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NormalizeDomain lowercases a domain and strips scheme, www prefix, path and
// port so "https://www.Acme.com/about" and "acme.com" compare equal.
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(strings.ToLower(domain))
	if domain == "" {
		return ""
	}
	if strings.Contains(domain, "://") {
		if u, err := url.Parse(domain); err == nil && u.Host != "" {
			domain = u.Host
		}
	}
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.Index(domain, ":"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// HashContent returns the hex SHA-256 of a signal's content. The dedup index
// uses the hash instead of the raw text to keep index entries small.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

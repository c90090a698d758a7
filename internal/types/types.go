// Package types defines the shared domain types for the signal pipeline.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies the origin of a signal. The set is fixed; collectors
// must not invent new categories at runtime.
type Category string

const (
	CategoryCodeActivity        Category = "code-activity"
	CategoryForumDiscussion     Category = "forum-discussion"
	CategoryNewsMention         Category = "news-mention"
	CategoryCompanyIntelligence Category = "company-intelligence"
	CategoryTechStack           Category = "tech-stack"
	CategorySecurityEndpoint    Category = "security-endpoint"
)

// Categories returns all known signal categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryCodeActivity,
		CategoryForumDiscussion,
		CategoryNewsMention,
		CategoryCompanyIntelligence,
		CategoryTechStack,
		CategorySecurityEndpoint,
	}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCodeActivity, CategoryForumDiscussion, CategoryNewsMention,
		CategoryCompanyIntelligence, CategoryTechStack, CategorySecurityEndpoint:
		return true
	}
	return false
}

// LeadSnapshot is the read-only view of a lead handed to collectors. It carries
// just enough to build search queries against external sources.
type LeadSnapshot struct {
	ID          uuid.UUID
	CompanyName string
	Domain      string
	Industry    string
	PrimaryTech string
}

// CandidateSignal is one observation produced by a collector before
// persistence. Confidence and Relevance are already clamped to [0,1] by the
// producing collector. A zero ObservedAt means the source gave no timestamp;
// the store substitutes the insertion time.
type CandidateSignal struct {
	Category   Category       `json:"category"`
	Source     string         `json:"source"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence"`
	Relevance  float64        `json:"relevance,omitempty"`
	Keywords   []string       `json:"keywords,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ObservedAt time.Time      `json:"observed_at,omitempty"`
}

// DiscoveredLead is a candidate company produced by lead discovery. Fields are
// best-effort extractions; the domain is the only identity that matters.
type DiscoveredLead struct {
	CompanyName   string   `json:"company_name"`
	Domain        string   `json:"domain"`
	Industry      string   `json:"industry"`
	EmployeeCount int      `json:"employee_count,omitempty"`
	RevenueRange  string   `json:"revenue_range,omitempty"`
	Location      string   `json:"location,omitempty"`
	Description   string   `json:"description,omitempty"`
	PrimaryTech   string   `json:"primary_tech,omitempty"`
	TechStack     []string `json:"tech_stack,omitempty"`
	Source        string   `json:"source"`
	SourceURL     string   `json:"source_url,omitempty"`
	IntentScore   float64  `json:"intent_score"`
}

// CreateLeadRequest is the payload for manual lead creation.
type CreateLeadRequest struct {
	CompanyName string `json:"company_name" validate:"required,min=1,max=255"`
	Domain      string `json:"domain" validate:"required,fqdn"`
	Industry    string `json:"industry,omitempty" validate:"omitempty,max=100"`
	Location    string `json:"location,omitempty" validate:"omitempty,max=255"`
	Description string `json:"description,omitempty"`
	PrimaryTech string `json:"primary_tech,omitempty" validate:"omitempty,max=100"`
}

package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkessler/leadpulse/internal/types"
)

const leadColumns = `id, company_name, domain, industry, employee_count, revenue_range,
	location, description, primary_tech, tech_stack, intent_score, category_scores,
	is_active, created_at, last_updated`

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	var techStack, categoryScores []byte
	err := row.Scan(
		&l.ID, &l.CompanyName, &l.Domain, &l.Industry, &l.EmployeeCount,
		&l.RevenueRange, &l.Location, &l.Description, &l.PrimaryTech,
		&techStack, &l.IntentScore, &categoryScores,
		&l.IsActive, &l.CreatedAt, &l.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(techStack, &l.TechStack); err != nil {
		return nil, fmt.Errorf("failed to decode tech stack: %w", err)
	}
	if err := json.Unmarshal(categoryScores, &l.CategoryScores); err != nil {
		return nil, fmt.Errorf("failed to decode category scores: %w", err)
	}
	return &l, nil
}

// CreateLead inserts a manually-entered lead. The domain is normalized and must
// not already exist.
func (db *DB) CreateLead(ctx context.Context, req types.CreateLeadRequest) (*Lead, error) {
	domain := NormalizeDomain(req.Domain)
	if domain == "" {
		return nil, fmt.Errorf("lead domain cannot be empty")
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO leads (company_name, domain, industry, location, description, primary_tech)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (domain) DO NOTHING
		 RETURNING `+leadColumns,
		req.CompanyName, domain, req.Industry, req.Location, req.Description, req.PrimaryTech,
	)
	lead, err := scanLead(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrDomainExists{Domain: domain}
		}
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}

// InsertDiscoveredLead inserts a lead harvested by discovery, skipping it when
// the domain already exists. Returns nil, nil for the duplicate case so that
// re-discovery stays idempotent.
func (db *DB) InsertDiscoveredLead(ctx context.Context, d types.DiscoveredLead) (*Lead, error) {
	domain := NormalizeDomain(d.Domain)
	if domain == "" {
		return nil, fmt.Errorf("discovered lead domain cannot be empty")
	}

	techStack, err := json.Marshal(d.TechStack)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tech stack: %w", err)
	}

	var employeeCount *int
	if d.EmployeeCount > 0 {
		employeeCount = &d.EmployeeCount
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO leads (company_name, domain, industry, employee_count, revenue_range,
		                    location, description, primary_tech, tech_stack, intent_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (domain) DO NOTHING
		 RETURNING `+leadColumns,
		d.CompanyName, domain, d.Industry, employeeCount, d.RevenueRange,
		d.Location, d.Description, d.PrimaryTech, techStack, d.IntentScore,
	)
	lead, err := scanLead(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to insert discovered lead: %w", err)
	}
	return lead, nil
}

// GetLeadByID retrieves a lead by its UUID. Returns nil, nil when absent.
func (db *DB) GetLeadByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// GetLeadByDomain retrieves a lead by its normalized domain. Returns nil, nil
// when absent.
func (db *DB) GetLeadByDomain(ctx context.Context, domain string) (*Lead, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE domain = $1`, NormalizeDomain(domain))
	lead, err := scanLead(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead by domain: %w", err)
	}
	return lead, nil
}

// ListLeads returns active leads ordered by intent score, highest first.
func (db *DB) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE is_active
		 ORDER BY intent_score DESC, last_updated DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// HighIntentLeads returns active leads whose intent score meets minScore.
func (db *DB) HighIntentLeads(ctx context.Context, minScore float64, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE is_active AND intent_score >= $1
		 ORDER BY intent_score DESC
		 LIMIT $2`, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list high intent leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// DeactivateLead soft-deletes a lead. Signals are kept; the lead simply drops
// out of read paths.
func (db *DB) DeactivateLead(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE leads SET is_active = FALSE, last_updated = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrLeadNotFound{LeadID: id}
	}
	return nil
}

// GetCategoryScores returns the lead's stored per-category scores.
func (db *DB) GetCategoryScores(ctx context.Context, leadID uuid.UUID) (map[types.Category]float64, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT category_scores FROM leads WHERE id = $1`, leadID).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrLeadNotFound{LeadID: leadID}
		}
		return nil, fmt.Errorf("failed to get category scores: %w", err)
	}
	scores := make(map[types.Category]float64)
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("failed to decode category scores: %w", err)
	}
	return scores, nil
}

// UpdateLeadScores persists recomputed category scores and the derived intent
// score in a single statement, refreshing last_updated.
func (db *DB) UpdateLeadScores(ctx context.Context, leadID uuid.UUID, categoryScores map[types.Category]float64, intentScore float64) error {
	raw, err := json.Marshal(categoryScores)
	if err != nil {
		return fmt.Errorf("failed to encode category scores: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE leads
		 SET category_scores = $1, intent_score = $2, last_updated = NOW()
		 WHERE id = $3`,
		raw, intentScore, leadID)
	if err != nil {
		return fmt.Errorf("failed to update lead scores: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrLeadNotFound{LeadID: leadID}
	}
	return nil
}

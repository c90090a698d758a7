package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkessler/leadpulse/internal/types"
)

const signalColumns = `id, lead_id, category, source, content, confidence, relevance,
	metadata, keywords, observed_at, created_at`

func scanSignal(row pgx.Row) (*Signal, error) {
	var s Signal
	var metadata, keywords []byte
	err := row.Scan(
		&s.ID, &s.LeadID, &s.Category, &s.Source, &s.Content,
		&s.Confidence, &s.Relevance, &metadata, &keywords,
		&s.ObservedAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode signal metadata: %w", err)
	}
	if err := json.Unmarshal(keywords, &s.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode signal keywords: %w", err)
	}
	return &s, nil
}

// InsertSignals persists one collector batch for a lead. Each candidate is
// inserted with ON CONFLICT DO NOTHING on the (lead, category, source, content)
// dedup key, which makes the whole operation idempotent under retry: a second
// call with the same batch inserts nothing. Returns the number of rows
// actually inserted. On error the batch is reported failed as a whole;
// rows inserted before the failure remain and a retry will skip them.
func (db *DB) InsertSignals(ctx context.Context, leadID uuid.UUID, candidates []types.CandidateSignal) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	inserted := 0
	for _, c := range candidates {
		if !c.Category.Valid() {
			return inserted, fmt.Errorf("invalid signal category %q", c.Category)
		}

		metadata, err := json.Marshal(orEmptyMap(c.Metadata))
		if err != nil {
			return inserted, fmt.Errorf("failed to encode signal metadata: %w", err)
		}
		keywords, err := json.Marshal(orEmptySlice(c.Keywords))
		if err != nil {
			return inserted, fmt.Errorf("failed to encode signal keywords: %w", err)
		}

		observedAt := c.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now().UTC()
		}

		tag, err := db.pool.Exec(ctx,
			`INSERT INTO signals (lead_id, category, source, content, content_hash,
			                      confidence, relevance, metadata, keywords, observed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (lead_id, category, source, content_hash) DO NOTHING`,
			leadID, c.Category, c.Source, c.Content, HashContent(c.Content),
			c.Confidence, c.Relevance, metadata, keywords, observedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert signal batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ListSignals returns a lead's signals, most recent first. An empty category
// matches all categories; days limits to signals observed within that window
// (0 means no window).
func (db *DB) ListSignals(ctx context.Context, leadID uuid.UUID, category types.Category, days int) ([]Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE lead_id = $1`
	args := []any{leadID}

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if days > 0 {
		args = append(args, time.Now().AddDate(0, 0, -days))
		query += fmt.Sprintf(` AND observed_at >= $%d`, len(args))
	}
	query += ` ORDER BY observed_at DESC, created_at DESC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	defer rows.Close()

	var signals []Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, *s)
	}
	return signals, rows.Err()
}

// SignalsByCategory groups a lead's signals by category, most recent first
// within each group. This is the read path the content-generation layer
// consumes.
func (db *DB) SignalsByCategory(ctx context.Context, leadID uuid.UUID) (map[types.Category][]Signal, error) {
	signals, err := db.ListSignals(ctx, leadID, "", 0)
	if err != nil {
		return nil, err
	}
	grouped := make(map[types.Category][]Signal)
	for _, s := range signals {
		grouped[s.Category] = append(grouped[s.Category], s)
	}
	return grouped, nil
}

// CountSignals returns the number of stored signals for a lead.
func (db *DB) CountSignals(ctx context.Context, leadID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM signals WHERE lead_id = $1`, leadID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return count, nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

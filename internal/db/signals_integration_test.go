package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/leadpulse/internal/types"
)

// setupTestDB connects to the database named by DATABASE_URL, skipping the
// test when no database is reachable.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	database, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	t.Cleanup(database.Close)
	return database
}

func createTestLead(t *testing.T, database *DB) *Lead {
	t.Helper()

	domain := fmt.Sprintf("test-%d.example.com", time.Now().UnixNano())
	lead, err := database.CreateLead(context.Background(), types.CreateLeadRequest{
		CompanyName: "Test Co",
		Domain:      domain,
		Industry:    "Technology",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = database.pool.Exec(context.Background(), `DELETE FROM leads WHERE id = $1`, lead.ID)
	})
	return lead
}

func TestInsertSignals_Idempotent(t *testing.T) {
	database := setupTestDB(t)
	lead := createTestLead(t, database)
	ctx := context.Background()

	batch := []types.CandidateSignal{
		{
			Category:   types.CategoryCodeActivity,
			Source:     "github.com/testco/auth",
			Content:    "Security-related commit: rotate JWT signing keys",
			Confidence: 0.6,
			Keywords:   []string{"jwt", "security"},
		},
		{
			Category:   types.CategoryCodeActivity,
			Source:     "github.com/testco/auth",
			Content:    "Security-related issue: SSO login loop",
			Confidence: 0.8,
		},
	}

	inserted, err := database.InsertSignals(ctx, lead.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Persisting the identical batch again inserts nothing.
	inserted, err = database.InsertSignals(ctx, lead.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	count, err := database.CountSignals(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertSignals_DedupIgnoresMetadata(t *testing.T) {
	database := setupTestDB(t)
	lead := createTestLead(t, database)
	ctx := context.Background()

	first := types.CandidateSignal{
		Category:   types.CategoryNewsMention,
		Source:     "newsapi",
		Content:    "Test Co announces new identity platform",
		Confidence: 0.5,
		Metadata:   map[string]any{"url": "https://news.example.com/a"},
	}
	second := first
	second.Metadata = map[string]any{"url": "https://news.example.com/b"}
	second.Confidence = 0.9

	inserted, err := database.InsertSignals(ctx, lead.ID, []types.CandidateSignal{first})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Same (category, source, content) with different metadata is a duplicate.
	inserted, err = database.InsertSignals(ctx, lead.ID, []types.CandidateSignal{second})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	// Different content is a distinct signal.
	third := first
	third.Content = "Test Co acquires competitor"
	inserted, err = database.InsertSignals(ctx, lead.ID, []types.CandidateSignal{third})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestInsertSignals_DefaultsObservedAt(t *testing.T) {
	database := setupTestDB(t)
	lead := createTestLead(t, database)
	ctx := context.Background()

	_, err := database.InsertSignals(ctx, lead.ID, []types.CandidateSignal{{
		Category:   types.CategoryTechStack,
		Source:     "techstack",
		Content:    "Tech stack analysis for Test Co: frameworks: React",
		Confidence: 0.2,
	}})
	require.NoError(t, err)

	signals, err := database.ListSignals(ctx, lead.ID, types.CategoryTechStack, 0)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.WithinDuration(t, time.Now(), signals[0].ObservedAt, time.Minute)
}

func TestUpdateLeadScores_RoundTrip(t *testing.T) {
	database := setupTestDB(t)
	lead := createTestLead(t, database)
	ctx := context.Background()

	scores := map[types.Category]float64{
		types.CategoryCodeActivity: 0.7,
		types.CategoryNewsMention:  0.4,
	}
	require.NoError(t, database.UpdateLeadScores(ctx, lead.ID, scores, 0.255))

	stored, err := database.GetCategoryScores(ctx, lead.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, stored[types.CategoryCodeActivity], 1e-9)
	assert.InDelta(t, 0.4, stored[types.CategoryNewsMention], 1e-9)

	reloaded, err := database.GetLeadByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.255, reloaded.IntentScore, 1e-9)
}

func TestCreateLead_DuplicateDomain(t *testing.T) {
	database := setupTestDB(t)
	lead := createTestLead(t, database)

	_, err := database.CreateLead(context.Background(), types.CreateLeadRequest{
		CompanyName: "Other Co",
		Domain:      lead.Domain,
	})
	require.Error(t, err)

	var dupErr *ErrDomainExists
	assert.ErrorAs(t, err, &dupErr)
}

func TestInsertDiscoveredLead_SkipsExistingDomain(t *testing.T) {
	database := setupTestDB(t)
	lead := createTestLead(t, database)

	created, err := database.InsertDiscoveredLead(context.Background(), types.DiscoveredLead{
		CompanyName: "Rediscovered Co",
		Domain:      lead.Domain,
		Industry:    "Technology",
		Source:      "github",
		IntentScore: 0.7,
	})
	require.NoError(t, err)
	assert.Nil(t, created)
}

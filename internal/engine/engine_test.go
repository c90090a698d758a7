package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/leadpulse/internal/collect"
	"github.com/mkessler/leadpulse/internal/db"
	"github.com/mkessler/leadpulse/internal/types"
)

type fakeStore struct {
	mu       sync.Mutex
	lead     *db.Lead
	scores   map[types.Category]float64
	intent   float64
	inserted []types.CandidateSignal

	insertErr error
}

func (f *fakeStore) GetLeadByID(_ context.Context, id uuid.UUID) (*db.Lead, error) {
	if f.lead != nil && f.lead.ID == id {
		return f.lead, nil
	}
	return nil, nil
}

func (f *fakeStore) InsertSignals(_ context.Context, _ uuid.UUID, candidates []types.CandidateSignal) (int, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, candidates...)
	return len(candidates), nil
}

func (f *fakeStore) GetCategoryScores(_ context.Context, _ uuid.UUID) (map[types.Category]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[types.Category]float64, len(f.scores))
	for k, v := range f.scores {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) UpdateLeadScores(_ context.Context, _ uuid.UUID, categoryScores map[types.Category]float64, intentScore float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = categoryScores
	f.intent = intentScore
	return nil
}

type stubCollector struct {
	name    string
	signals []types.CandidateSignal
}

func (s *stubCollector) Name() string { return s.name }

func (s *stubCollector) Collect(_ context.Context, _ types.LeadSnapshot) []types.CandidateSignal {
	return s.signals
}

func testWeights() map[types.Category]float64 {
	return map[types.Category]float64{
		types.CategoryCodeActivity:        0.25,
		types.CategoryForumDiscussion:     0.20,
		types.CategoryNewsMention:         0.20,
		types.CategoryCompanyIntelligence: 0.15,
		types.CategoryTechStack:           0.10,
		types.CategorySecurityEndpoint:    0.10,
	}
}

func TestRunEndToEnd(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{lead: &db.Lead{ID: leadID, CompanyName: "Acme", Domain: "acme.io"}}

	collectors := []collect.Collector{
		&stubCollector{name: "a", signals: []types.CandidateSignal{
			{Category: types.CategoryCodeActivity, Source: "github.com/acme/x", Content: "one", Confidence: 0.6},
		}},
		&stubCollector{name: "b", signals: []types.CandidateSignal{
			{Category: types.CategoryCodeActivity, Source: "github.com/acme/y", Content: "two", Confidence: 0.8},
		}},
		&stubCollector{name: "silent"},
	}

	runner := New(store, collectors, testWeights(), time.Minute)
	require.NoError(t, runner.Run(context.Background(), leadID))

	assert.Len(t, store.inserted, 2)
	// Two code-activity confidences 0.6 and 0.8 average to 0.7; every other
	// category is silent, so intent is 0.7 times the code-activity weight.
	assert.InDelta(t, 0.7, store.scores[types.CategoryCodeActivity], 1e-9)
	assert.InDelta(t, 0.7*0.25, store.intent, 1e-9)
}

func TestRunSilenceKeepsScores(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{
		lead:   &db.Lead{ID: leadID, CompanyName: "Acme", Domain: "acme.io"},
		scores: map[types.Category]float64{types.CategoryNewsMention: 0.5},
	}

	runner := New(store, []collect.Collector{&stubCollector{name: "silent"}}, testWeights(), time.Minute)
	require.NoError(t, runner.Run(context.Background(), leadID))

	assert.InDelta(t, 0.5, store.scores[types.CategoryNewsMention], 1e-9)
	assert.InDelta(t, 0.5*0.20, store.intent, 1e-9)
}

func TestRunUnknownLead(t *testing.T) {
	store := &fakeStore{}
	runner := New(store, nil, testWeights(), time.Minute)

	err := runner.Run(context.Background(), uuid.New())
	var notFound *db.ErrLeadNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestRunPersistenceFailure(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{
		lead:      &db.Lead{ID: leadID, CompanyName: "Acme", Domain: "acme.io"},
		insertErr: errors.New("connection reset"),
	}

	collectors := []collect.Collector{&stubCollector{name: "a", signals: []types.CandidateSignal{
		{Category: types.CategoryCodeActivity, Source: "s", Content: "c", Confidence: 0.5},
	}}}

	runner := New(store, collectors, testWeights(), time.Minute)
	err := runner.Run(context.Background(), leadID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist")
	// Aggregation never ran, so no scores were written.
	assert.Empty(t, store.scores)
}

func TestTriggerRunsInBackground(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{lead: &db.Lead{ID: leadID, CompanyName: "Acme", Domain: "acme.io"}}

	done := make(chan struct{})
	collectors := []collect.Collector{&stubCollector{name: "a", signals: []types.CandidateSignal{
		{Category: types.CategoryTechStack, Source: "s", Content: "c", Confidence: 1.0},
	}}}

	runner := New(store, collectors, testWeights(), time.Minute)
	go func() {
		runner.Trigger(leadID)
		close(done)
	}()
	<-done

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.intent > 0
	}, 2*time.Second, 10*time.Millisecond)
}

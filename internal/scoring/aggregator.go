package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkessler/leadpulse/internal/types"
)

// ScoreStore is the persistence surface the aggregator needs. *db.DB
// implements it; tests use an in-memory fake.
type ScoreStore interface {
	GetCategoryScores(ctx context.Context, leadID uuid.UUID) (map[types.Category]float64, error)
	UpdateLeadScores(ctx context.Context, leadID uuid.UUID, categoryScores map[types.Category]float64, intentScore float64) error
}

// Aggregator rolls one collection run's signals into per-category scores and a
// single intent score for the lead.
type Aggregator struct {
	store   ScoreStore
	weights map[types.Category]float64
}

// NewAggregator builds an aggregator with the given category weights. Weights
// must be non-negative; they are used as linear coefficients without
// renormalization.
func NewAggregator(store ScoreStore, weights map[types.Category]float64) *Aggregator {
	return &Aggregator{store: store, weights: weights}
}

// Aggregate recomputes the lead's category scores from this run's signals and
// persists the derived intent score. A category with no signals in this run
// keeps its stored score: a silent source (rate-limited, unconfigured) must not
// zero out what a previous run observed. Returns the new intent score.
func (a *Aggregator) Aggregate(ctx context.Context, leadID uuid.UUID, run []types.CandidateSignal) (float64, error) {
	scores, err := a.store.GetCategoryScores(ctx, leadID)
	if err != nil {
		return 0, fmt.Errorf("failed to load category scores: %w", err)
	}
	if scores == nil {
		scores = make(map[types.Category]float64)
	}

	for cat, avg := range CategoryAverages(run) {
		scores[cat] = avg
	}

	intent := IntentScore(scores, a.weights)

	if err := a.store.UpdateLeadScores(ctx, leadID, scores, intent); err != nil {
		return 0, fmt.Errorf("failed to persist lead scores: %w", err)
	}
	return intent, nil
}

// CategoryAverages returns the mean confidence per category over the run's
// signals. Categories absent from the run are absent from the result.
func CategoryAverages(run []types.CandidateSignal) map[types.Category]float64 {
	sums := make(map[types.Category]float64)
	counts := make(map[types.Category]int)
	for _, sig := range run {
		sums[sig.Category] += sig.Confidence
		counts[sig.Category]++
	}
	averages := make(map[types.Category]float64, len(sums))
	for cat, sum := range sums {
		averages[cat] = sum / float64(counts[cat])
	}
	return averages
}

// IntentScore is the weighted sum of category scores. The result is
// deliberately not clamped: with the default weights (sum 1.0) it stays in
// [0,1], and weight overrides own the resulting bound.
func IntentScore(scores map[types.Category]float64, weights map[types.Category]float64) float64 {
	var total float64
	for cat, w := range weights {
		total += scores[cat] * w
	}
	return total
}

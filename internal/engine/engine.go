// Package engine orchestrates collection runs: fan out collectors, persist
// their candidates, then fold the run into the lead's scores.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mkessler/leadpulse/internal/collect"
	"github.com/mkessler/leadpulse/internal/db"
	"github.com/mkessler/leadpulse/internal/scoring"
	"github.com/mkessler/leadpulse/internal/types"
)

// Store is the persistence surface a run needs: lead lookup, signal
// insertion and the score read/write pair used by the aggregator.
type Store interface {
	scoring.ScoreStore
	GetLeadByID(ctx context.Context, id uuid.UUID) (*db.Lead, error)
	InsertSignals(ctx context.Context, leadID uuid.UUID, candidates []types.CandidateSignal) (int, error)
}

// Runner executes collection runs. Runs for different leads proceed in
// parallel; runs for the same lead are serialized so the score
// read-modify-write cannot interleave.
type Runner struct {
	store      Store
	collectors []collect.Collector
	aggregator *scoring.Aggregator
	runTimeout time.Duration

	leadLocks sync.Map // uuid.UUID -> *sync.Mutex
}

// New builds a Runner over the given collectors.
func New(store Store, collectors []collect.Collector, weights map[types.Category]float64, runTimeout time.Duration) *Runner {
	return &Runner{
		store:      store,
		collectors: collectors,
		aggregator: scoring.NewAggregator(store, weights),
		runTimeout: runTimeout,
	}
}

// Trigger starts a collection run in the background and returns immediately.
// The run carries its own timeout; caller cancellation does not reach it.
func (r *Runner) Trigger(leadID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.runTimeout)
		defer cancel()

		if err := r.Run(ctx, leadID); err != nil {
			log.Printf("engine: collection run failed for lead %s: %v", leadID, err)
		}
	}()
}

// Run executes one collection run synchronously: verify the lead, fan out the
// collectors, persist each collector's candidates as it finishes, then
// aggregate over everything the run produced. Collector errors do not exist
// by contract; only persistence and aggregation can fail.
func (r *Runner) Run(ctx context.Context, leadID uuid.UUID) error {
	lead, err := r.store.GetLeadByID(ctx, leadID)
	if err != nil {
		return fmt.Errorf("failed to load lead: %w", err)
	}
	if lead == nil {
		return &db.ErrLeadNotFound{LeadID: leadID}
	}

	mu := r.lockFor(leadID)
	mu.Lock()
	defer mu.Unlock()

	snapshot := lead.Snapshot()

	var runMu sync.Mutex
	var run []types.CandidateSignal

	g, gctx := errgroup.WithContext(ctx)
	for _, collector := range r.collectors {
		g.Go(func() error {
			candidates := collector.Collect(gctx, snapshot)
			if len(candidates) == 0 {
				return nil
			}

			inserted, err := r.store.InsertSignals(gctx, leadID, candidates)
			if err != nil {
				return fmt.Errorf("failed to persist %s signals: %w", collector.Name(), err)
			}
			log.Printf("engine: %s produced %d candidates (%d new) for %s",
				collector.Name(), len(candidates), inserted, snapshot.Domain)

			runMu.Lock()
			run = append(run, candidates...)
			runMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if _, err := r.aggregator.Aggregate(ctx, leadID, run); err != nil {
		return fmt.Errorf("failed to aggregate scores: %w", err)
	}
	return nil
}

func (r *Runner) lockFor(leadID uuid.UUID) *sync.Mutex {
	mu, _ := r.leadLocks.LoadOrStore(leadID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

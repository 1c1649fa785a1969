// Package pipeline runs discrete scan cycles: parallel per-symbol
// scoring followed by single-threaded alert evaluation against the
// shared state store.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/confluence/internal/alerts"
	"github.com/sawpanic/confluence/internal/alerts/state"
	"github.com/sawpanic/confluence/internal/metrics"
	"github.com/sawpanic/confluence/internal/regime"
	"github.com/sawpanic/confluence/internal/score"
)

// SymbolInput is one (symbol, timeframe) worth of externally computed
// features plus detected pattern tags.
type SymbolInput struct {
	Symbol    string           `json:"symbol"`
	Timeframe string           `json:"timeframe"`
	Features  score.FeatureSet `json:"features"`
	Patterns  []score.Pattern  `json:"patterns,omitempty"`
}

// CycleInput is everything one scan cycle consumes: the per-symbol
// feature sets and the shared market health snapshot.
type CycleInput struct {
	Health  regime.MarketHealth `json:"market_health"`
	Symbols []SymbolInput       `json:"symbols"`
}

// CycleResult is the outcome of one completed cycle.
type CycleResult struct {
	Regime  regime.Classification
	Bundles []score.ScoreBundle
	Events  []alerts.AlertEvent
	Stats   alerts.Stats
	Elapsed time.Duration
}

// Runner wires scorers, classifier, aggregator and evaluator into one
// cycle pipeline.
type Runner struct {
	scorers    []score.Scorer
	classifier *regime.Classifier
	aggregator *score.Aggregator
	evaluator  *alerts.Evaluator
	store      state.Store
	metrics    *metrics.Registry
	workers    int
	now        func() time.Time
}

// NewRunner assembles a cycle runner. metrics may be nil.
func NewRunner(
	classifier *regime.Classifier,
	aggregator *score.Aggregator,
	evaluator *alerts.Evaluator,
	store state.Store,
	reg *metrics.Registry,
	workers int,
) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		scorers:    score.AllScorers(),
		classifier: classifier,
		aggregator: aggregator,
		evaluator:  evaluator,
		store:      store,
		metrics:    reg,
		workers:    workers,
		now:        time.Now,
	}
}

// RunCycle scores every symbol in parallel on a bounded worker pool,
// then applies alert evaluation sequentially so that no two goroutines
// ever read-modify-write the same state key. Cancellation is
// cycle-grained: on ctx error the partial bundles are discarded and the
// store keeps exactly the state of the last completed Put.
func (r *Runner) RunCycle(ctx context.Context, input CycleInput) (*CycleResult, error) {
	started := r.now()

	cls := r.classifier.Classify(input.Health)
	log.Debug().
		Str("regime", cls.Regime.String()).
		Float64("confidence", cls.Confidence).
		Int("symbols", len(input.Symbols)).
		Msg("cycle started")

	bundles, err := r.scoreAll(ctx, input.Symbols, cls, started)
	if err != nil {
		return nil, err
	}

	var events []alerts.AlertEvent
	var stats alerts.Stats
	for _, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cycle aborted during alert evaluation: %w", err)
		}
		evs, st := r.evaluator.Evaluate(ctx, bundle)
		events = append(events, evs...)
		stats.Fired += st.Fired
		stats.SuppressedCooldown += st.SuppressedCooldown
		stats.SuppressedDelta += st.SuppressedDelta
		stats.PersistFailures += st.PersistFailures
	}

	if err := r.store.Flush(ctx); err != nil {
		// A failed flush is a cycle-level warning, not a crash: dedupe
		// resumes from the last durable snapshot next cycle.
		log.Warn().Err(err).Msg("alert state flush failed")
	}

	elapsed := r.now().Sub(started)
	r.record(cls, len(bundles), events, stats, elapsed)

	return &CycleResult{
		Regime:  cls,
		Bundles: bundles,
		Events:  events,
		Stats:   stats,
		Elapsed: elapsed,
	}, nil
}

// scoreAll fans symbol scoring out over the worker pool. Scoring is
// pure per symbol, so no ordering or locking is needed beyond the
// semaphore bound.
func (r *Runner) scoreAll(ctx context.Context, inputs []SymbolInput, cls regime.Classification, ts time.Time) ([]score.ScoreBundle, error) {
	bundles := make([]score.ScoreBundle, len(inputs))
	sem := make(chan struct{}, r.workers)

	var wg sync.WaitGroup
	for i, in := range inputs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, fmt.Errorf("cycle aborted during scoring: %w", ctx.Err())
		}

		wg.Add(1)
		go func(i int, in SymbolInput) {
			defer wg.Done()
			defer func() { <-sem }()
			bundles[i] = r.scoreSymbol(in, cls, ts)
		}(i, in)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cycle aborted during scoring: %w", err)
	}
	return bundles, nil
}

func (r *Runner) scoreSymbol(in SymbolInput, cls regime.Classification, ts time.Time) score.ScoreBundle {
	scores := make(map[score.Component]score.ComponentScore, len(r.scorers))
	for _, s := range r.scorers {
		scores[s.Component()] = s.Score(in.Features)
	}

	agg := r.aggregator.Aggregate(scores, cls)

	bundle := score.ScoreBundle{
		Symbol:     in.Symbol,
		Timeframe:  in.Timeframe,
		Scores:     scores,
		Confluence: agg.Confluence,
		Confidence: agg.Confidence,
		Regime:     cls,
		Patterns:   in.Patterns,
		Timestamp:  ts,
	}

	if bbw, ok := in.Features.Lookup(score.FeatureVolatilityBBWidthPct); ok {
		bundle.BBWidthPct = bbw
		bundle.BBWidthValid = true
	}
	return bundle
}

func (r *Runner) record(cls regime.Classification, scored int, events []alerts.AlertEvent, stats alerts.Stats, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.CyclesTotal.Inc()
	r.metrics.CycleDuration.Observe(elapsed.Seconds())
	r.metrics.SymbolsScored.Add(float64(scored))
	r.metrics.ActiveRegime.Set(float64(cls.Regime))
	for _, ev := range events {
		r.metrics.AlertsFired.WithLabelValues(string(ev.Type)).Inc()
	}
	r.metrics.AlertsSuppressed.WithLabelValues("cooldown").Add(float64(stats.SuppressedCooldown))
	r.metrics.AlertsSuppressed.WithLabelValues("min_delta").Add(float64(stats.SuppressedDelta))
	r.metrics.PersistErrors.Add(float64(stats.PersistFailures))
}

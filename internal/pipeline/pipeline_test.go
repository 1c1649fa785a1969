package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/confluence/internal/alerts"
	"github.com/sawpanic/confluence/internal/alerts/state"
	"github.com/sawpanic/confluence/internal/config"
	"github.com/sawpanic/confluence/internal/metrics"
	"github.com/sawpanic/confluence/internal/regime"
	"github.com/sawpanic/confluence/internal/score"
)

func strongFeatures() score.FeatureSet {
	return score.FeatureSet{
		score.FeatureTrendMAAlignment:       1,
		score.FeatureTrendPersistence:       0.9,
		score.FeatureTrendDistanceFromMA:    3.0,
		score.FeatureTrendMASlope:           2.0,
		score.FeatureVolumeRVOL:             2.0,
		score.FeatureVolumeTrendSlope:       5.0,
		score.FeatureVolumePercentile:       0.9,
		score.FeatureVolatilityATRPct:       2.0,
		score.FeatureVolatilityBBWidthPct:   5.0,
		score.FeatureVolatilityContraction:  0.7,
		score.FeatureRSReturn20:             10.0,
		score.FeatureRSReturn60:             20.0,
		score.FeatureRSReturn120:            30.0,
		score.FeaturePositioningFundingRate: -0.001,
		score.FeaturePositioningOIChange:    5.0,
	}
}

func newTestRunner(t *testing.T, workers int, reg *metrics.Registry) (*Runner, state.Store) {
	t.Helper()

	cfg := config.Default()
	classifier, err := regime.NewClassifier(cfg.Regime)
	require.NoError(t, err)

	table, err := cfg.WeightTable()
	require.NoError(t, err)

	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	evaluator, err := alerts.NewEvaluator(cfg.AlertConfig(), store)
	require.NoError(t, err)

	return NewRunner(classifier, score.NewAggregator(table), evaluator, store, reg, workers), store
}

func bullHealth() regime.MarketHealth {
	return regime.MarketHealth{BenchmarkTrend: 90, Breadth: 85, RiskOn: 80}
}

func TestRunCycle_ScoresEverySymbol(t *testing.T) {
	runner, _ := newTestRunner(t, 4, nil)

	input := CycleInput{
		Health: bullHealth(),
		Symbols: []SymbolInput{
			{Symbol: "BTC/USDT", Timeframe: "4h", Features: strongFeatures()},
			{Symbol: "ETH/USDT", Timeframe: "4h", Features: strongFeatures()},
			{Symbol: "SOL/USDT", Timeframe: "1d", Features: strongFeatures()},
		},
	}

	result, err := runner.RunCycle(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, result.Bundles, 3)

	assert.Equal(t, regime.Bull, result.Regime.Regime)
	for i, bundle := range result.Bundles {
		assert.Equal(t, input.Symbols[i].Symbol, bundle.Symbol, "bundle order must match input order")
		assert.Len(t, bundle.Scores, 5)
		assert.GreaterOrEqual(t, bundle.Confluence, 0.0)
		assert.LessOrEqual(t, bundle.Confluence, 100.0)
		assert.True(t, bundle.BBWidthValid)
	}
}

func TestRunCycle_ParallelScoringMatchesSerial(t *testing.T) {
	symbols := make([]SymbolInput, 40)
	for i := range symbols {
		symbols[i] = SymbolInput{Symbol: "SYM" + string(rune('A'+i%26)), Timeframe: "4h", Features: strongFeatures()}
	}
	input := CycleInput{Health: bullHealth(), Symbols: symbols}

	serial, _ := newTestRunner(t, 1, nil)
	parallel, _ := newTestRunner(t, 8, nil)

	serialResult, err := serial.RunCycle(context.Background(), input)
	require.NoError(t, err)
	parallelResult, err := parallel.RunCycle(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, parallelResult.Bundles, len(serialResult.Bundles))
	for i := range serialResult.Bundles {
		assert.Equal(t, serialResult.Bundles[i].Symbol, parallelResult.Bundles[i].Symbol)
		assert.InDelta(t, serialResult.Bundles[i].Confluence, parallelResult.Bundles[i].Confluence, 1e-9)
	}
}

func TestRunCycle_CancelledContextAborts(t *testing.T) {
	runner, _ := newTestRunner(t, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := CycleInput{
		Health: bullHealth(),
		Symbols: []SymbolInput{
			{Symbol: "BTC/USDT", Timeframe: "4h", Features: strongFeatures()},
		},
	}

	result, err := runner.RunCycle(ctx, input)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCycle_MissingFeaturesStillScore(t *testing.T) {
	runner, _ := newTestRunner(t, 2, nil)

	input := CycleInput{
		Health: bullHealth(),
		Symbols: []SymbolInput{
			{Symbol: "NEW/USDT", Timeframe: "4h", Features: score.FeatureSet{}},
		},
	}

	result, err := runner.RunCycle(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, result.Bundles, 1)

	bundle := result.Bundles[0]
	for _, cs := range bundle.Scores {
		assert.False(t, cs.Available)
		assert.Equal(t, score.NeutralScore, cs.Value)
	}
	assert.Equal(t, score.NeutralScore, bundle.Confluence)
	assert.Zero(t, bundle.Confidence)
	assert.False(t, bundle.BBWidthValid)
}

func TestRunCycle_AlertsPersistAcrossCycles(t *testing.T) {
	runner, store := newTestRunner(t, 2, nil)

	input := CycleInput{
		Health: bullHealth(),
		Symbols: []SymbolInput{
			{Symbol: "BTC/USDT", Timeframe: "4h", Features: strongFeatures()},
		},
	}

	first, err := runner.RunCycle(context.Background(), input)
	require.NoError(t, err)
	require.NotEmpty(t, first.Events, "strong features in a bull regime must alert")

	// Same input immediately again: everything is inside the cooldown
	// window now.
	second, err := runner.RunCycle(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, second.Events)
	assert.Positive(t, second.Stats.SuppressedCooldown)

	key := state.Key{Symbol: "BTC/USDT", Timeframe: "4h", AlertType: string(first.Events[0].Type)}
	st, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, st.LastFired.IsZero())
}

func TestRunCycle_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	runner, _ := newTestRunner(t, 2, reg)

	input := CycleInput{
		Health: bullHealth(),
		Symbols: []SymbolInput{
			{Symbol: "BTC/USDT", Timeframe: "4h", Features: strongFeatures()},
			{Symbol: "ETH/USDT", Timeframe: "4h", Features: strongFeatures()},
		},
	}

	_, err := runner.RunCycle(context.Background(), input)
	require.NoError(t, err)

	families, err := reg.Gatherer().Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	assert.True(t, found["confluence_cycles_total"])
	assert.True(t, found["confluence_symbols_scored_total"])
	assert.True(t, found["confluence_active_regime"])
}

func TestRunCycle_NilMetricsIsSafe(t *testing.T) {
	runner, _ := newTestRunner(t, 2, nil)

	input := CycleInput{
		Health: bullHealth(),
		Symbols: []SymbolInput{
			{Symbol: "BTC/USDT", Timeframe: "4h", Features: strongFeatures()},
		},
	}

	_, err := runner.RunCycle(context.Background(), input)
	assert.NoError(t, err)
}

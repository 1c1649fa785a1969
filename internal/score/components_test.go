package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullFeatures() FeatureSet {
	return FeatureSet{
		FeatureTrendMAAlignment:      1.0,
		FeatureTrendPersistence:      0.8,
		FeatureTrendDistanceFromMA:   3.0,
		FeatureTrendMASlope:          2.0,
		FeatureVolumeRVOL:            2.0,
		FeatureVolumeTrendSlope:      5.0,
		FeatureVolumePercentile:      0.7,
		FeatureVolatilityATRPct:      4.0,
		FeatureVolatilityBBWidthPct:  5.0,
		FeatureVolatilityContraction: 0.8,
		FeatureRSReturn20:            10.0,
		FeatureRSReturn60:            25.0,
		FeatureRSReturn120:           40.0,
		FeaturePositioningFundingRate: 0.0001,
		FeaturePositioningOIChange:    5.0,
	}
}

func TestScorers_BoundsHoldForExtremeInputs(t *testing.T) {
	extremes := []float64{-1e9, -100, -1, 0, 0.5, 1, 100, 1e9}

	for _, scorer := range AllScorers() {
		for _, v := range extremes {
			features := FeatureSet{}
			for name := range fullFeatures() {
				features[name] = v
			}

			cs := scorer.Score(features)
			assert.GreaterOrEqual(t, cs.Value, 0.0, "%s with input %v", scorer.Component(), v)
			assert.LessOrEqual(t, cs.Value, 100.0, "%s with input %v", scorer.Component(), v)
		}
	}
}

func TestScorers_MissingFeatureYieldsNeutralUnavailable(t *testing.T) {
	for _, scorer := range AllScorers() {
		cs := scorer.Score(FeatureSet{})
		assert.False(t, cs.Available, "%s should be unavailable on empty features", scorer.Component())
		assert.Equal(t, NeutralScore, cs.Value)
	}
}

func TestScorers_NaNFeatureYieldsNeutralUnavailable(t *testing.T) {
	features := fullFeatures()
	features[FeatureTrendPersistence] = math.NaN()

	cs := NewTrendScorer().Score(features)
	assert.False(t, cs.Available)
	assert.Equal(t, NeutralScore, cs.Value)
}

func TestTrendScorer_MonotonicInBullishness(t *testing.T) {
	scorer := NewTrendScorer()

	bearish := fullFeatures()
	bearish[FeatureTrendMAAlignment] = -1.0
	bearish[FeatureTrendPersistence] = 0.1
	bearish[FeatureTrendMASlope] = -4.0

	bullish := fullFeatures()
	bullish[FeatureTrendMAAlignment] = 1.0
	bullish[FeatureTrendPersistence] = 0.9
	bullish[FeatureTrendMASlope] = 4.0

	low := scorer.Score(bearish)
	high := scorer.Score(bullish)
	require.True(t, low.Available)
	require.True(t, high.Available)
	assert.Less(t, low.Value, high.Value)
}

func TestTrendScorer_ExtensionPenalty(t *testing.T) {
	scorer := NewTrendScorer()

	near := fullFeatures()
	near[FeatureTrendDistanceFromMA] = 2.0

	stretched := fullFeatures()
	stretched[FeatureTrendDistanceFromMA] = 25.0

	assert.Greater(t, scorer.Score(near).Value, scorer.Score(stretched).Value)
}

func TestVolumeScorer_RVOLSweetSpot(t *testing.T) {
	scorer := NewVolumeScorer()

	quiet := fullFeatures()
	quiet[FeatureVolumeRVOL] = 0.5

	sweet := fullFeatures()
	sweet[FeatureVolumeRVOL] = 2.5

	parabolic := fullFeatures()
	parabolic[FeatureVolumeRVOL] = 9.0

	quietScore := scorer.Score(quiet).Value
	sweetScore := scorer.Score(sweet).Value
	parabolicScore := scorer.Score(parabolic).Value

	assert.Greater(t, sweetScore, quietScore)
	assert.Greater(t, sweetScore, parabolicScore, "parabolic RVOL should taper below the sweet spot")
}

func TestVolatilityScorer_RewardsCompression(t *testing.T) {
	scorer := NewVolatilityScorer()

	compressed := FeatureSet{
		FeatureVolatilityATRPct:      1.0,
		FeatureVolatilityBBWidthPct:  2.0,
		FeatureVolatilityContraction: 0.4,
	}
	expanded := FeatureSet{
		FeatureVolatilityATRPct:      12.0,
		FeatureVolatilityBBWidthPct:  25.0,
		FeatureVolatilityContraction: 1.9,
	}

	assert.Greater(t, scorer.Score(compressed).Value, scorer.Score(expanded).Value)
}

func TestRelStrengthScorer_MonotonicInReturns(t *testing.T) {
	scorer := NewRelStrengthScorer()

	weak := FeatureSet{
		FeatureRSReturn20:  -20.0,
		FeatureRSReturn60:  -30.0,
		FeatureRSReturn120: -40.0,
	}
	strong := FeatureSet{
		FeatureRSReturn20:  30.0,
		FeatureRSReturn60:  60.0,
		FeatureRSReturn120: 120.0,
	}

	assert.Less(t, scorer.Score(weak).Value, scorer.Score(strong).Value)
}

func TestPositioningScorer_ContrarianInversion(t *testing.T) {
	scorer := NewPositioningScorer()

	// Strongly positive funding with OI building: crowded longs.
	crowdedLong := FeatureSet{
		FeaturePositioningFundingRate: 0.05,
		FeaturePositioningOIChange:    40.0,
	}
	// Strongly negative funding with the same OI build: crowded shorts.
	crowdedShort := FeatureSet{
		FeaturePositioningFundingRate: -0.05,
		FeaturePositioningOIChange:    40.0,
	}

	longScore := scorer.Score(crowdedLong)
	shortScore := scorer.Score(crowdedShort)
	require.True(t, longScore.Available)
	require.True(t, shortScore.Available)

	assert.Less(t, longScore.Value, 50.0, "crowded longs must be penalized below neutral")
	assert.Greater(t, shortScore.Value, 50.0, "crowded shorts must score above neutral")
}

func TestPositioningScorer_FundingClamp(t *testing.T) {
	scorer := NewPositioningScorer()

	capped := FeatureSet{
		FeaturePositioningFundingRate: 0.003,
		FeaturePositioningOIChange:    0.0,
	}
	beyond := FeatureSet{
		FeaturePositioningFundingRate: 0.3,
		FeaturePositioningOIChange:    0.0,
	}

	assert.InDelta(t, scorer.Score(capped).Value, scorer.Score(beyond).Value, 1e-9,
		"funding beyond the cap should not move the score further")
}

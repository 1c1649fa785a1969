package score

// Feature keys consumed by the trend scorer.
const (
	FeatureTrendMAAlignment    = "trend_ma_alignment"       // -1, 0 or +1
	FeatureTrendPersistence    = "trend_persistence"        // [0,1]
	FeatureTrendDistanceFromMA = "trend_distance_from_ma_pct" // signed %
	FeatureTrendMASlope        = "trend_ma_slope_pct"       // % over lookback
)

// TrendScorer blends MA alignment, trend persistence, extension from the
// MA and MA slope into one bounded score. Monotonic increasing in
// bullishness for alignment, persistence and slope.
type TrendScorer struct {
	idealExtensionBand float64 // % band around the MA scored as 100
	maxSlopeAbs        float64 // slope clamp before rescaling
}

func NewTrendScorer() *TrendScorer {
	return &TrendScorer{
		idealExtensionBand: 5.0,
		maxSlopeAbs:        5.0,
	}
}

func (s *TrendScorer) Component() Component { return ComponentTrend }

func (s *TrendScorer) Score(features FeatureSet) ComponentScore {
	align, okAlign := features.Lookup(FeatureTrendMAAlignment)
	persistence, okPersist := features.Lookup(FeatureTrendPersistence)
	distPct, okDist := features.Lookup(FeatureTrendDistanceFromMA)
	slopePct, okSlope := features.Lookup(FeatureTrendMASlope)

	if !okAlign || !okPersist || !okDist || !okSlope {
		return neutral(ComponentTrend)
	}

	// -1/0/+1 alignment maps to 0/50/100
	sAlign := clamp((align+1.0)*50.0, 0.0, 100.0)
	sPersist := clamp(persistence*100.0, 0.0, 100.0)
	sDist := s.extensionScore(distPct)
	sSlope := s.slopeScore(slopePct)

	total := 0.35*sAlign + 0.30*sPersist + 0.20*sDist + 0.15*sSlope
	return bounded(ComponentTrend, total)
}

// extensionScore penalizes price stretched too far from the MA: full
// marks inside the ideal band, then 5 points off per extra 1%.
func (s *TrendScorer) extensionScore(distPct float64) float64 {
	dist := distPct
	if dist < 0 {
		dist = -dist
	}
	if dist <= s.idealExtensionBand {
		return 100.0
	}
	return clamp(100.0-(dist-s.idealExtensionBand)*5.0, 0.0, 100.0)
}

// slopeScore favors rising MAs: [-maxAbs, +maxAbs] maps to [0, 100]
// with a flat MA scoring 50.
func (s *TrendScorer) slopeScore(slopePct float64) float64 {
	v := clamp(slopePct, -s.maxSlopeAbs, s.maxSlopeAbs)
	return (v + s.maxSlopeAbs) / (2 * s.maxSlopeAbs) * 100.0
}

package score

// Feature keys consumed by the volume scorer.
const (
	FeatureVolumeRVOL       = "volume_rvol"            // relative volume vs 20-bar average
	FeatureVolumeTrendSlope = "volume_trend_slope_pct" // % slope of volume trend
	FeatureVolumePercentile = "volume_percentile"      // [0,1] rank within lookback
)

// VolumeScorer blends relative volume, volume trend slope and volume
// percentile rank. RVOL is scored for breakout-type setups: a sweet spot
// around 1.5-3.0x with a taper above it to avoid chasing parabolic bars.
type VolumeScorer struct {
	idealLow     float64
	idealHigh    float64
	maxSlopeAbs  float64
}

func NewVolumeScorer() *VolumeScorer {
	return &VolumeScorer{
		idealLow:    1.5,
		idealHigh:   3.0,
		maxSlopeAbs: 20.0,
	}
}

func (s *VolumeScorer) Component() Component { return ComponentVolume }

func (s *VolumeScorer) Score(features FeatureSet) ComponentScore {
	rvol, okRVOL := features.Lookup(FeatureVolumeRVOL)
	slopePct, okSlope := features.Lookup(FeatureVolumeTrendSlope)
	pct, okPct := features.Lookup(FeatureVolumePercentile)

	if !okRVOL || !okSlope || !okPct {
		return neutral(ComponentVolume)
	}

	sRVOL := s.rvolScore(rvol)
	sSlope := s.slopeScore(slopePct)
	sPct := clamp(pct*100.0, 0.0, 100.0)

	total := 0.45*sRVOL + 0.25*sSlope + 0.30*sPct
	return bounded(ComponentVolume, total)
}

func (s *VolumeScorer) rvolScore(rvol float64) float64 {
	switch {
	case rvol <= 0:
		return 0.0
	case rvol < 1.0:
		// Low interest: linear 0..1 -> 0..60
		return clamp(rvol*60.0, 0.0, 60.0)
	case rvol < s.idealLow:
		// Ramp into the sweet spot: 60..80
		t := (rvol - 1.0) / (s.idealLow - 1.0)
		return 60.0 + t*20.0
	case rvol <= s.idealHigh:
		// Sweet spot: 80..100
		t := (rvol - s.idealLow) / (s.idealHigh - s.idealLow)
		return 80.0 + t*20.0
	default:
		// Taper 100 -> 70 over the next 4x of RVOL
		extra := rvol - s.idealHigh
		if extra >= 4.0 {
			return 70.0
		}
		return 100.0 - (extra/4.0)*30.0
	}
}

func (s *VolumeScorer) slopeScore(slopePct float64) float64 {
	v := clamp(slopePct, -s.maxSlopeAbs, s.maxSlopeAbs)
	return (v + s.maxSlopeAbs) / (2 * s.maxSlopeAbs) * 100.0
}

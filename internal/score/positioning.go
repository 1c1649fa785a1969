package score

// Feature keys consumed by the positioning scorer.
const (
	FeaturePositioningFundingRate = "positioning_funding_rate"  // per-interval funding rate
	FeaturePositioningOIChange    = "positioning_oi_change_pct" // % open interest change
)

// PositioningScorer is deliberately contrarian: expensive positive
// funding means crowded longs and lowers the score, negative funding
// means crowded shorts and raises it. The funding mapping is an explicit
// inversion around the 50 baseline, not a sign flip on the blend.
type PositioningScorer struct {
	fundingAbsCap float64 // funding clamp before rescaling
	fundingSwing  float64 // points moved off the 50 baseline at the cap
}

func NewPositioningScorer() *PositioningScorer {
	return &PositioningScorer{
		fundingAbsCap: 0.003,
		fundingSwing:  40.0,
	}
}

func (s *PositioningScorer) Component() Component { return ComponentPositioning }

func (s *PositioningScorer) Score(features FeatureSet) ComponentScore {
	fundingRate, okFunding := features.Lookup(FeaturePositioningFundingRate)
	oiChange, okOI := features.Lookup(FeaturePositioningOIChange)

	if !okFunding || !okOI {
		return neutral(ComponentPositioning)
	}

	sFunding := s.fundingCrowdingScore(fundingRate)
	sOI := oiBuildUpScore(oiChange)

	total := 0.7*sFunding + 0.3*sOI
	return bounded(ComponentPositioning, total)
}

// fundingCrowdingScore maps funding in [-cap, +cap] to [50+swing,
// 50-swing]: the more positive (crowded-long) funding gets, the lower
// the score.
func (s *PositioningScorer) fundingCrowdingScore(fundingRate float64) float64 {
	fr := clamp(fundingRate, -s.fundingAbsCap, s.fundingAbsCap)
	return clamp(50.0-(fr/s.fundingAbsCap)*s.fundingSwing, 0.0, 100.0)
}

// oiBuildUpScore rewards positions building and penalizes positions
// exiting: % OI change in [-100, +100] maps linearly to [0, 100].
func oiBuildUpScore(oiChangePct float64) float64 {
	c := clamp(oiChangePct, -100.0, 100.0)
	return (c + 100.0) / 200.0 * 100.0
}

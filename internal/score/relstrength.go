package score

// Feature keys consumed by the relative-strength scorer.
const (
	FeatureRSReturn20  = "rs_ret_20_pct"
	FeatureRSReturn60  = "rs_ret_60_pct"
	FeatureRSReturn120 = "rs_ret_120_pct"
)

// RelStrengthScorer maps multi-horizon returns onto a bounded score,
// with more emphasis on the longer horizons. Monotonic increasing in
// each return.
type RelStrengthScorer struct {
	negCap float64 // returns at or below this score 0
	posCap float64 // returns at or above this score 100
}

func NewRelStrengthScorer() *RelStrengthScorer {
	return &RelStrengthScorer{
		negCap: -50.0,
		posCap: 150.0,
	}
}

func (s *RelStrengthScorer) Component() Component { return ComponentRelStrength }

func (s *RelStrengthScorer) Score(features FeatureSet) ComponentScore {
	ret20, ok20 := features.Lookup(FeatureRSReturn20)
	ret60, ok60 := features.Lookup(FeatureRSReturn60)
	ret120, ok120 := features.Lookup(FeatureRSReturn120)

	if !ok20 || !ok60 || !ok120 {
		return neutral(ComponentRelStrength)
	}

	total := 0.25*s.returnScore(ret20) + 0.35*s.returnScore(ret60) + 0.40*s.returnScore(ret120)
	return bounded(ComponentRelStrength, total)
}

// returnScore linearly rescales a raw % return between the caps.
func (s *RelStrengthScorer) returnScore(retPct float64) float64 {
	if retPct <= s.negCap {
		return 0.0
	}
	if retPct >= s.posCap {
		return 100.0
	}
	return (retPct - s.negCap) / (s.posCap - s.negCap) * 100.0
}

package score

// Feature keys consumed by the volatility scorer.
const (
	FeatureVolatilityATRPct       = "volatility_atr_pct"           // ATR as % of price
	FeatureVolatilityBBWidthPct   = "volatility_bb_width_pct"      // Bollinger band width %
	FeatureVolatilityContraction  = "volatility_contraction_ratio" // recent ATR% / earlier ATR%
)

// VolatilityScorer rewards volatility compression: high when ATR and
// band width are tight and recent volatility is contracting versus the
// earlier window. Quiet charts score high, expanded ones score low.
type VolatilityScorer struct {
	atrScale float64
	bbScale  float64
}

func NewVolatilityScorer() *VolatilityScorer {
	return &VolatilityScorer{
		atrScale: 5.0,
		bbScale:  10.0,
	}
}

func (s *VolatilityScorer) Component() Component { return ComponentVolatility }

func (s *VolatilityScorer) Score(features FeatureSet) ComponentScore {
	atrPct, okATR := features.Lookup(FeatureVolatilityATRPct)
	bbWidthPct, okBB := features.Lookup(FeatureVolatilityBBWidthPct)
	contraction, okContr := features.Lookup(FeatureVolatilityContraction)

	if !okATR || !okBB || !okContr {
		return neutral(ComponentVolatility)
	}

	sATR := inverseScaleScore(atrPct, s.atrScale)
	sBB := inverseScaleScore(bbWidthPct, s.bbScale)
	sContr := contractionScore(contraction)

	total := 0.30*sATR + 0.35*sBB + 0.35*sContr
	return bounded(ComponentVolatility, total)
}

// inverseScaleScore maps higher x to lower score: 100 / (1 + x/scale).
func inverseScaleScore(x, scale float64) float64 {
	if x < 0 {
		x = 0
	}
	return clamp(100.0/(1.0+x/scale), 0.0, 100.0)
}

// contractionScore maps the recent/earlier ATR ratio onto [0,100]:
// ratios at or below zero count as full contraction, >= 2.0 as full
// expansion, linear in between.
func contractionScore(ratio float64) float64 {
	if ratio <= 0 {
		return 100.0
	}
	if ratio >= 2.0 {
		return 0.0
	}
	return clamp((2.0-ratio)/2.0*100.0, 0.0, 100.0)
}

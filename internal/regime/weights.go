package regime

import (
	"fmt"
	"math"
)

// WeightSumTolerance is the epsilon used when validating that a regime's
// weight vector sums to 1.
const WeightSumTolerance = 1e-6

// KnownComponents lists the component names a weight vector may carry,
// in scoring order.
func KnownComponents() []string {
	return []string{"trend", "volume", "volatility", "relative_strength", "positioning"}
}

// WeightVector maps component name -> weight for one regime.
type WeightVector map[string]float64

// Sum returns the total of all weights in the vector.
func (wv WeightVector) Sum() float64 {
	total := 0.0
	for _, w := range wv {
		total += w
	}
	return total
}

// WeightTable holds one validated weight vector per regime. It is built
// once at process start from configuration and never mutated afterwards.
type WeightTable struct {
	vectors map[Regime]WeightVector
}

// NewWeightTable validates and freezes per-regime weight vectors. Every
// regime must be present, every key must be a known component and each
// vector must sum to 1 within WeightSumTolerance; a violation is a
// configuration error and the process must not start.
func NewWeightTable(vectors map[Regime]WeightVector) (*WeightTable, error) {
	known := make(map[string]bool, len(KnownComponents()))
	for _, name := range KnownComponents() {
		known[name] = true
	}

	frozen := make(map[Regime]WeightVector, len(vectors))

	for _, r := range All() {
		wv, ok := vectors[r]
		if !ok {
			return nil, fmt.Errorf("missing weight vector for regime %s", r)
		}
		if len(wv) == 0 {
			return nil, fmt.Errorf("empty weight vector for regime %s", r)
		}
		for name, w := range wv {
			// A typo'd component name would otherwise pass the sum check
			// and silently drop the intended component from every score.
			if !known[name] {
				return nil, fmt.Errorf("regime %s: unknown component %q in weight vector", r, name)
			}
			if w < 0 || math.IsNaN(w) {
				return nil, fmt.Errorf("regime %s: weight %s=%.6f is invalid", r, name, w)
			}
		}
		if sum := wv.Sum(); math.Abs(sum-1.0) > WeightSumTolerance {
			return nil, fmt.Errorf("regime %s: weights sum to %.8f, expected 1.0 (tolerance %g)",
				r, sum, WeightSumTolerance)
		}

		copied := make(WeightVector, len(wv))
		for name, w := range wv {
			copied[name] = w
		}
		frozen[r] = copied
	}

	return &WeightTable{vectors: frozen}, nil
}

// WeightsFor returns the weight vector for a regime. The returned map
// must be treated as read-only.
func (wt *WeightTable) WeightsFor(r Regime) WeightVector {
	if wv, ok := wt.vectors[r]; ok {
		return wv
	}
	// Unknown regimes fall back to sideways, the safe default.
	return wt.vectors[Sideways]
}

package score

import (
	"math"

	"github.com/sawpanic/confluence/internal/regime"
)

// Aggregator combines the five component scores into the final
// confluence score using the regime's weight vector. Pure function of
// its inputs: identical scores and regime always produce the identical
// result.
type Aggregator struct {
	weights *regime.WeightTable
}

// NewAggregator creates an aggregator over a validated weight table.
func NewAggregator(weights *regime.WeightTable) *Aggregator {
	return &Aggregator{weights: weights}
}

// AggregateResult carries the combined score plus its confidence.
type AggregateResult struct {
	Confluence float64 // [0,100]
	Confidence float64 // [0,1]

	// EffectiveWeights are the re-normalized weights actually applied,
	// keyed by component name. Kept for explainability output.
	EffectiveWeights map[string]float64
}

// Aggregate weights the available component scores by the regime's
// vector, re-normalized over availability. Partial data is the common
// case: unavailable components simply drop out. With zero available
// components the result degrades to a neutral 50 at zero confidence
// rather than failing the symbol.
//
// Confidence is the share of the regime's original weight that was
// backed by available data, scaled by the regime classification's own
// confidence, bounded to [0,1].
func (a *Aggregator) Aggregate(scores map[Component]ComponentScore, cls regime.Classification) AggregateResult {
	vector := a.weights.WeightsFor(cls.Regime)

	usedWeight := 0.0
	totalWeight := 0.0
	weighted := 0.0

	for _, c := range Components() {
		w, ok := vector[string(c)]
		if !ok {
			continue
		}
		totalWeight += w

		cs, ok := scores[c]
		if !ok || !cs.Available {
			continue
		}
		weighted += w * cs.Value
		usedWeight += w
	}

	if usedWeight <= 0 {
		return AggregateResult{
			Confluence:       NeutralScore,
			Confidence:       0.0,
			EffectiveWeights: map[string]float64{},
		}
	}

	effective := make(map[string]float64, len(vector))
	for _, c := range Components() {
		if cs, ok := scores[c]; ok && cs.Available {
			if w, ok := vector[string(c)]; ok {
				effective[string(c)] = w / usedWeight
			}
		}
	}

	confluence := clamp(weighted/usedWeight, 0.0, 100.0)

	confidence := 0.0
	if totalWeight > 0 {
		confidence = (usedWeight / totalWeight) * cls.Confidence
	}
	confidence = math.Max(0.0, math.Min(1.0, confidence))

	return AggregateResult{
		Confluence:       confluence,
		Confidence:       confidence,
		EffectiveWeights: effective,
	}
}

// AvailableCount reports how many component scores carry usable data.
func AvailableCount(scores map[Component]ComponentScore) int {
	n := 0
	for _, cs := range scores {
		if cs.Available {
			n++
		}
	}
	return n
}

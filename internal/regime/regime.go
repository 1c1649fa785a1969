package regime

import "fmt"

// Regime represents the current market regime classification
type Regime int

const (
	Bull Regime = iota
	Sideways
	Bear
)

func (r Regime) String() string {
	switch r {
	case Bull:
		return "bull"
	case Sideways:
		return "sideways"
	case Bear:
		return "bear"
	default:
		return "unknown"
	}
}

// All returns every known regime, in declaration order.
func All() []Regime {
	return []Regime{Bull, Sideways, Bear}
}

// Parse converts a regime label (as stored in config or alert state)
// back into a Regime.
func Parse(s string) (Regime, error) {
	switch s {
	case "bull":
		return Bull, nil
	case "sideways":
		return Sideways, nil
	case "bear":
		return Bear, nil
	default:
		return Sideways, fmt.Errorf("unknown regime %q", s)
	}
}

// Classification is the output of the classifier: a regime plus a
// confidence in [0,1] derived from how deep inside its band the
// composite health index landed.
type Classification struct {
	Regime     Regime  `json:"regime"`
	Confidence float64 `json:"confidence"`
}

// MarketHealth is the per-cycle market summary supplied by the
// market-regime collaborator. All metrics are 0-100 scores.
type MarketHealth struct {
	BenchmarkTrend float64 `json:"benchmark_trend"`
	Breadth        float64 `json:"breadth"`
	RiskOn         float64 `json:"risk_on"`
}

package score

import (
	"math"
	"time"

	"github.com/sawpanic/confluence/internal/regime"
)

// Component identifies one of the five scoring dimensions.
type Component string

const (
	ComponentTrend       Component = "trend"
	ComponentVolume      Component = "volume"
	ComponentVolatility  Component = "volatility"
	ComponentRelStrength Component = "relative_strength"
	ComponentPositioning Component = "positioning"
)

// Components returns all scoring components in evaluation order.
func Components() []Component {
	return []Component{
		ComponentTrend,
		ComponentVolume,
		ComponentVolatility,
		ComponentRelStrength,
		ComponentPositioning,
	}
}

// NeutralScore is emitted when a scorer's required inputs are missing,
// letting the aggregator degrade gracefully instead of aborting the symbol.
const NeutralScore = 50.0

// FeatureSet maps feature name -> value for one (symbol, timeframe).
// Produced by the external feature-extraction collaborator; treated as
// immutable once handed to a scorer.
type FeatureSet map[string]float64

// Lookup returns the named feature, reporting false for absent or
// non-finite values.
func (fs FeatureSet) Lookup(name string) (float64, bool) {
	v, ok := fs[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ComponentScore is one bounded score with an availability flag.
type ComponentScore struct {
	Component Component `json:"component"`
	Value     float64   `json:"value"` // Always in [0,100]
	Available bool      `json:"available"`
}

// Scorer turns a FeatureSet into one bounded component score.
// Implementations are pure: no I/O, no shared state.
type Scorer interface {
	Component() Component
	Score(features FeatureSet) ComponentScore
}

// AllScorers returns one scorer per component, in evaluation order.
func AllScorers() []Scorer {
	return []Scorer{
		NewTrendScorer(),
		NewVolumeScorer(),
		NewVolatilityScorer(),
		NewRelStrengthScorer(),
		NewPositioningScorer(),
	}
}

// Pattern is a detector tag attached to a bundle, with the number of
// bars elapsed since the pattern triggered.
type Pattern struct {
	Tag     string `json:"tag"`
	BarsAgo int    `json:"bars_ago"`
}

// ScoreBundle is the complete scoring output for one (symbol,
// timeframe, run). Immutable after creation; owned by the run that
// produced it.
type ScoreBundle struct {
	Symbol     string                       `json:"symbol"`
	Timeframe  string                       `json:"timeframe"`
	Scores     map[Component]ComponentScore `json:"scores"`
	Confluence float64                      `json:"confluence_score"` // [0,100]
	Confidence float64                      `json:"confidence"`       // [0,1]
	Regime     regime.Classification        `json:"regime"`
	Patterns   []Pattern                    `json:"patterns,omitempty"`

	// BBWidthPct carries the raw Bollinger band width percentile used by
	// the squeeze alert; BBWidthValid is false when the volatility
	// features did not include it.
	BBWidthPct   float64 `json:"bb_width_pct,omitempty"`
	BBWidthValid bool    `json:"bb_width_valid"`

	Timestamp time.Time `json:"timestamp"`
}

// ComponentValue returns the bounded value for a component, neutral when
// the component was never scored.
func (b ScoreBundle) ComponentValue(c Component) float64 {
	if cs, ok := b.Scores[c]; ok {
		return cs.Value
	}
	return NeutralScore
}

// HasPattern reports whether a tag is present within maxBarsAgo bars.
func (b ScoreBundle) HasPattern(tag string, maxBarsAgo int) bool {
	for _, p := range b.Patterns {
		if p.Tag == tag && p.BarsAgo <= maxBarsAgo {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func neutral(c Component) ComponentScore {
	return ComponentScore{Component: c, Value: NeutralScore, Available: false}
}

func bounded(c Component, v float64) ComponentScore {
	return ComponentScore{Component: c, Value: clamp(v, 0.0, 100.0), Available: true}
}

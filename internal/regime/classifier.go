package regime

import (
	"fmt"
	"math"
)

// ClassifierConfig holds the threshold bands for regime classification
type ClassifierConfig struct {
	BullMin float64 `yaml:"bull_min"` // Default: 60
	BearMax float64 `yaml:"bear_max"` // Default: 40

	// Composite index blend over MarketHealth metrics
	RiskOnWeight  float64 `yaml:"risk_on_weight"`  // Default: 0.50
	BreadthWeight float64 `yaml:"breadth_weight"`  // Default: 0.30
	TrendWeight   float64 `yaml:"trend_weight"`    // Default: 0.20
}

// DefaultClassifierConfig returns the production threshold bands
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BullMin:       60.0,
		BearMax:       40.0,
		RiskOnWeight:  0.50,
		BreadthWeight: 0.30,
		TrendWeight:   0.20,
	}
}

// Validate checks the band ordering and blend weights
func (c ClassifierConfig) Validate() error {
	if c.BearMax <= 0 || c.BullMin >= 100 || c.BearMax >= c.BullMin {
		return fmt.Errorf("invalid regime bands: bear_max=%.2f bull_min=%.2f", c.BearMax, c.BullMin)
	}
	sum := c.RiskOnWeight + c.BreadthWeight + c.TrendWeight
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("regime blend weights sum to %.6f, expected 1.0", sum)
	}
	return nil
}

// Classifier maps a MarketHealth summary onto a discrete regime.
// Stateless and deterministic: no hysteresis across calls. Callers that
// want hysteresis hold run-to-run state themselves.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a classifier with the given band configuration
func NewClassifier(config ClassifierConfig) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("classifier config: %w", err)
	}
	return &Classifier{config: config}, nil
}

// CompositeIndex blends the health metrics into a single 0-100 index
func (c *Classifier) CompositeIndex(health MarketHealth) float64 {
	idx := c.config.RiskOnWeight*health.RiskOn +
		c.config.BreadthWeight*health.Breadth +
		c.config.TrendWeight*health.BenchmarkTrend
	return math.Max(0.0, math.Min(100.0, idx))
}

// Classify maps the composite index onto {bull, sideways, bear} via the
// configured bands. Confidence is the index's distance from the nearest
// band boundary, min-max normalized to [0,1] over the band's width.
func (c *Classifier) Classify(health MarketHealth) Classification {
	idx := c.CompositeIndex(health)

	switch {
	case idx >= c.config.BullMin:
		return Classification{
			Regime:     Bull,
			Confidence: bandConfidence(idx-c.config.BullMin, 100.0-c.config.BullMin),
		}
	case idx <= c.config.BearMax:
		return Classification{
			Regime:     Bear,
			Confidence: bandConfidence(c.config.BearMax-idx, c.config.BearMax),
		}
	default:
		half := (c.config.BullMin - c.config.BearMax) / 2.0
		dist := math.Min(c.config.BullMin-idx, idx-c.config.BearMax)
		return Classification{
			Regime:     Sideways,
			Confidence: bandConfidence(dist, half),
		}
	}
}

func bandConfidence(dist, width float64) float64 {
	if width <= 0 {
		return 0.0
	}
	return math.Max(0.0, math.Min(1.0, dist/width))
}

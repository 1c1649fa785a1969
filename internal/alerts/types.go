// Package alerts converts score bundles into de-duplicated alert events,
// enforcing per-key cooldowns and minimum-change thresholds against a
// persistent state store.
package alerts

import (
	"fmt"
	"time"
)

// AlertType enumerates the independent alert conditions. Each type keeps
// its own persisted state and is evaluated separately: one symbol may
// fire several types in the same run.
type AlertType string

const (
	TypeHighConfluence   AlertType = "high_confluence"
	TypeVolumeSpike      AlertType = "volume_spike"
	TypeSqueezeCandidate AlertType = "squeeze_candidate"
	TypeRegimeChange     AlertType = "regime_change"
	TypeRSIDivergence    AlertType = "rsi_divergence"
)

// AllTypes returns every alert type in evaluation order.
func AllTypes() []AlertType {
	return []AlertType{
		TypeHighConfluence,
		TypeVolumeSpike,
		TypeSqueezeCandidate,
		TypeRegimeChange,
		TypeRSIDivergence,
	}
}

// ParseAlertType validates an alert type label from configuration.
func ParseAlertType(s string) (AlertType, error) {
	for _, t := range AllTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown alert type %q", s)
}

// Pattern tags recognized by the RSI divergence alert.
const (
	PatternRSIBullishDivergence = "rsi_bullish_divergence"
	PatternRSIBearishDivergence = "rsi_bearish_divergence"
)

// AlertEvent is the ephemeral output of a fired alert, consumed by
// notification dispatch. Snapshot carries the component scores at fire
// time for rendering.
type AlertEvent struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`

	Confluence float64            `json:"confluence_score"`
	Confidence float64            `json:"confidence"`
	Snapshot   map[string]float64 `json:"snapshot"`
	Regime     string             `json:"regime"`
	Message    string             `json:"message"`
	FiredAt    time.Time          `json:"fired_at"`

	// Unpersisted marks an event whose state write failed after retry.
	// The event is still delivered; suppression resumes once the store
	// recovers.
	Unpersisted bool `json:"unpersisted,omitempty"`
}

// Package state provides the durable per-key alert state used by the
// alert evaluator for dedupe, cooldown and minimum-delta suppression.
package state

import (
	"context"
	"fmt"
	"time"
)

// Key identifies one persisted alert state record.
type Key struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	AlertType string `json:"alert_type"`
}

// String serializes the key deterministically for use as a store key.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Symbol, k.Timeframe, k.AlertType)
}

// AlertState is the persisted dedupe record for one key. Created on the
// first qualifying event, updated on every fire.
type AlertState struct {
	LastFired        time.Time `json:"last_fired" db:"last_fired"`
	LastScore        float64   `json:"last_score" db:"last_score"`
	LastRegime       string    `json:"last_regime" db:"last_regime"`
	SuppressionCount int       `json:"suppression_count" db:"suppression_count"`
}

// Store is the narrow contract the evaluator depends on. Put must be
// atomic per key; implementations must support concurrent access as
// long as no two callers read-modify-write the same key at once (the
// evaluator serializes per key). A read failure degrades to absent
// state rather than aborting the cycle.
type Store interface {
	// Get returns the state for a key, reporting false when no state
	// exists yet.
	Get(ctx context.Context, key Key) (AlertState, bool, error)

	// Put atomically records the state for a key.
	Put(ctx context.Context, key Key, st AlertState) error

	// Flush is the durable persistence point for buffered backends; a
	// no-op for backends where Put is already durable.
	Flush(ctx context.Context) error
}

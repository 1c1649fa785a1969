package alerts

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/confluence/internal/alerts/state"
	"github.com/sawpanic/confluence/internal/regime"
	"github.com/sawpanic/confluence/internal/score"
)

// Config holds the alert thresholds. Loaded once at process start and
// never re-read mid-cycle.
type Config struct {
	Enabled map[AlertType]bool `yaml:"-"`

	// high_confluence thresholds
	MinConfluenceScore   float64 `yaml:"min_confluence_score"`
	MinTrendScore        float64 `yaml:"min_trend_score"`
	MinVolumeScore       float64 `yaml:"min_volume_score"`
	MinPositioningScore  float64 `yaml:"min_positioning_score"`
	RequireUptrendRegime bool    `yaml:"require_uptrend_regime"`

	// Dedupe / suppression
	MinCSDelta      float64 `yaml:"min_cs_delta"`
	CooldownMinutes int     `yaml:"cooldown_minutes"`

	// Bundles below this confidence never alert on score-based types.
	MinConfidence float64 `yaml:"min_confidence"`

	// Per-type thresholds
	VolumeSpikeMinVolumeScore float64 `yaml:"volume_spike_min_volume_score"`
	SqueezeMaxVolScore        float64 `yaml:"squeeze_max_vol_score"`
	SqueezeMaxBBWidthPct      float64 `yaml:"squeeze_max_bbw_pct"`
	RSIDivergenceMaxBarsAgo   int     `yaml:"rsi_divergence_max_bars_from_last"`
}

// DefaultConfig mirrors the production alert thresholds.
func DefaultConfig() Config {
	enabled := make(map[AlertType]bool, len(AllTypes()))
	for _, t := range AllTypes() {
		enabled[t] = true
	}
	return Config{
		Enabled:                   enabled,
		MinConfluenceScore:        60.0,
		MinTrendScore:             55.0,
		MinVolumeScore:            50.0,
		MinPositioningScore:       50.0,
		RequireUptrendRegime:      false,
		MinCSDelta:                3.0,
		CooldownMinutes:           60,
		MinConfidence:             0.05,
		VolumeSpikeMinVolumeScore: 75.0,
		SqueezeMaxVolScore:        40.0,
		SqueezeMaxBBWidthPct:      6.0,
		RSIDivergenceMaxBarsAgo:   1,
	}
}

// Validate rejects thresholds a scorer can never reach.
func (c Config) Validate() error {
	scores := map[string]float64{
		"min_confluence_score":          c.MinConfluenceScore,
		"min_trend_score":               c.MinTrendScore,
		"min_volume_score":              c.MinVolumeScore,
		"min_positioning_score":         c.MinPositioningScore,
		"volume_spike_min_volume_score": c.VolumeSpikeMinVolumeScore,
		"squeeze_max_vol_score":         c.SqueezeMaxVolScore,
	}
	for name, v := range scores {
		if v < 0 || v > 100 {
			return fmt.Errorf("alert threshold %s=%.2f outside [0,100]", name, v)
		}
	}
	if c.MinCSDelta < 0 {
		return fmt.Errorf("min_cs_delta must be >= 0, got %.2f", c.MinCSDelta)
	}
	if c.CooldownMinutes < 0 {
		return fmt.Errorf("cooldown_minutes must be >= 0, got %d", c.CooldownMinutes)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence=%.2f outside [0,1]", c.MinConfidence)
	}
	return nil
}

func (c Config) cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

func (c Config) enabled(t AlertType) bool {
	if c.Enabled == nil {
		return true
	}
	on, ok := c.Enabled[t]
	return !ok || on
}

// Stats counts evaluator outcomes for one bundle, for metrics.
type Stats struct {
	Fired              int
	SuppressedCooldown int
	SuppressedDelta    int
	PersistFailures    int
}

// Evaluator is the per-(symbol, timeframe, alert type) decision state
// machine. It never closes: every key is re-evaluated each run, moving
// between no-prior-alert, cooling-down and eligible purely through the
// persisted AlertState.
type Evaluator struct {
	config Config
	store  state.Store
	now    func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator creates an evaluator over a validated config.
func NewEvaluator(config Config, store state.Store, opts ...Option) (*Evaluator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("alerts config: %w", err)
	}
	e := &Evaluator{
		config: config,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate runs every enabled alert type against one bundle, in order.
// Store reads that fail degrade to absent state; store writes are
// retried once and then surfaced on the event as Unpersisted.
func (e *Evaluator) Evaluate(ctx context.Context, bundle score.ScoreBundle) ([]AlertEvent, Stats) {
	var events []AlertEvent
	var stats Stats

	now := e.now()

	for _, alertType := range AllTypes() {
		if !e.config.enabled(alertType) {
			continue
		}

		key := state.Key{
			Symbol:    bundle.Symbol,
			Timeframe: bundle.Timeframe,
			AlertType: string(alertType),
		}

		prior, exists, err := e.store.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("alert state read failed, treating as absent")
			prior, exists = state.AlertState{}, false
		}

		// Step 1: type-specific qualifying condition. A miss leaves the
		// state exactly as it was.
		if !e.qualifies(alertType, bundle, prior, exists) {
			continue
		}

		// regime_change has no baseline to diff against on first sight:
		// seed the state silently so the next flip can fire.
		if alertType == TypeRegimeChange && !exists {
			seed := state.AlertState{LastRegime: bundle.Regime.Regime.String()}
			if err := e.persist(ctx, key, seed); err != nil {
				stats.PersistFailures++
			}
			continue
		}

		// Step 2: cooldown window.
		if exists && now.Sub(prior.LastFired) < e.config.cooldown() {
			stats.SuppressedCooldown++
			e.suppress(ctx, key, prior, &stats)
			continue
		}

		// Step 3: minimum score delta. First-ever alerts bypass it, and
		// a true regime flip always counts as changed.
		if exists && alertType != TypeRegimeChange &&
			math.Abs(bundle.Confluence-prior.LastScore) < e.config.MinCSDelta {
			stats.SuppressedDelta++
			e.suppress(ctx, key, prior, &stats)
			continue
		}

		// Step 4: fire.
		event := e.buildEvent(alertType, bundle, prior, exists, now)

		next := state.AlertState{
			LastFired:  now,
			LastScore:  bundle.Confluence,
			LastRegime: bundle.Regime.Regime.String(),
		}
		if err := e.persist(ctx, key, next); err != nil {
			event.Unpersisted = true
			stats.PersistFailures++
			log.Warn().Err(err).Str("key", key.String()).
				Msg("alert state write failed, emitting unpersisted event")
		}

		events = append(events, event)
		stats.Fired++
	}

	return events, stats
}

func (e *Evaluator) qualifies(t AlertType, bundle score.ScoreBundle, prior state.AlertState, exists bool) bool {
	// Low-confidence bundles never alert on score-based conditions.
	if t != TypeRegimeChange && bundle.Confidence < e.config.MinConfidence {
		return false
	}

	switch t {
	case TypeHighConfluence:
		if e.config.RequireUptrendRegime && bundle.Regime.Regime == regime.Bear {
			return false
		}
		return bundle.Confluence >= e.config.MinConfluenceScore &&
			bundle.ComponentValue(score.ComponentTrend) >= e.config.MinTrendScore &&
			bundle.ComponentValue(score.ComponentVolume) >= e.config.MinVolumeScore &&
			bundle.ComponentValue(score.ComponentPositioning) >= e.config.MinPositioningScore

	case TypeVolumeSpike:
		return bundle.ComponentValue(score.ComponentVolume) >= e.config.VolumeSpikeMinVolumeScore

	case TypeSqueezeCandidate:
		return bundle.BBWidthValid &&
			bundle.ComponentValue(score.ComponentVolatility) <= e.config.SqueezeMaxVolScore &&
			bundle.BBWidthPct <= e.config.SqueezeMaxBBWidthPct

	case TypeRegimeChange:
		if !exists {
			return true // seeds state, never fires
		}
		return prior.LastRegime != "" && prior.LastRegime != bundle.Regime.Regime.String()

	case TypeRSIDivergence:
		return bundle.HasPattern(PatternRSIBullishDivergence, e.config.RSIDivergenceMaxBarsAgo) ||
			bundle.HasPattern(PatternRSIBearishDivergence, e.config.RSIDivergenceMaxBarsAgo)

	default:
		return false
	}
}

// suppress bumps the consecutive-suppression counter on existing state.
func (e *Evaluator) suppress(ctx context.Context, key state.Key, prior state.AlertState, stats *Stats) {
	prior.SuppressionCount++
	if err := e.persist(ctx, key, prior); err != nil {
		stats.PersistFailures++
	}
}

// persist writes through the store with a single retry.
func (e *Evaluator) persist(ctx context.Context, key state.Key, st state.AlertState) error {
	if err := e.store.Put(ctx, key, st); err != nil {
		if retryErr := e.store.Put(ctx, key, st); retryErr != nil {
			return retryErr
		}
	}
	return nil
}

func (e *Evaluator) buildEvent(t AlertType, bundle score.ScoreBundle, prior state.AlertState, exists bool, now time.Time) AlertEvent {
	snapshot := make(map[string]float64, len(bundle.Scores))
	for c, cs := range bundle.Scores {
		snapshot[string(c)] = cs.Value
	}

	return AlertEvent{
		ID:         uuid.NewString(),
		Type:       t,
		Symbol:     bundle.Symbol,
		Timeframe:  bundle.Timeframe,
		Confluence: bundle.Confluence,
		Confidence: bundle.Confidence,
		Snapshot:   snapshot,
		Regime:     bundle.Regime.Regime.String(),
		Message:    e.message(t, bundle, prior, exists),
		FiredAt:    now,
	}
}

func (e *Evaluator) message(t AlertType, bundle score.ScoreBundle, prior state.AlertState, exists bool) string {
	if t == TypeRegimeChange && exists {
		return fmt.Sprintf("Market regime changed from %s to %s",
			strings.ToUpper(prior.LastRegime),
			strings.ToUpper(bundle.Regime.Regime.String()))
	}

	return fmt.Sprintf("CS: %.1f | Trend: %.1f | Volu: %.1f | Vola: %.1f | RS: %.1f | Pos: %.1f | Regime: %s",
		bundle.Confluence,
		bundle.ComponentValue(score.ComponentTrend),
		bundle.ComponentValue(score.ComponentVolume),
		bundle.ComponentValue(score.ComponentVolatility),
		bundle.ComponentValue(score.ComponentRelStrength),
		bundle.ComponentValue(score.ComponentPositioning),
		strings.ToUpper(bundle.Regime.Regime.String()))
}

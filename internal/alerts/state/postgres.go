package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists alert state in the alert_states table:
//
//	CREATE TABLE alert_states (
//	    symbol            TEXT        NOT NULL,
//	    timeframe         TEXT        NOT NULL,
//	    alert_type        TEXT        NOT NULL,
//	    last_fired        TIMESTAMPTZ NOT NULL,
//	    last_score        DOUBLE PRECISION NOT NULL,
//	    last_regime       TEXT        NOT NULL DEFAULT '',
//	    suppression_count INTEGER     NOT NULL DEFAULT 0,
//	    PRIMARY KEY (symbol, timeframe, alert_type)
//	);
//
// The upsert makes Put atomic per key. Flush is a no-op.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore creates a store over an existing connection pool.
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

func (ps *PostgresStore) Get(ctx context.Context, key Key) (AlertState, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, ps.timeout)
	defer cancel()

	const query = `
		SELECT last_fired, last_score, last_regime, suppression_count
		FROM alert_states
		WHERE symbol = $1 AND timeframe = $2 AND alert_type = $3`

	var st AlertState
	err := ps.db.GetContext(ctx, &st, query, key.Symbol, key.Timeframe, key.AlertType)
	if errors.Is(err, sql.ErrNoRows) {
		return AlertState{}, false, nil
	}
	if err != nil {
		return AlertState{}, false, fmt.Errorf("failed to read alert state for %s: %w", key, err)
	}
	return st, true, nil
}

func (ps *PostgresStore) Put(ctx context.Context, key Key, st AlertState) error {
	ctx, cancel := context.WithTimeout(ctx, ps.timeout)
	defer cancel()

	const query = `
		INSERT INTO alert_states
		(symbol, timeframe, alert_type, last_fired, last_score, last_regime, suppression_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, timeframe, alert_type) DO UPDATE SET
			last_fired = EXCLUDED.last_fired,
			last_score = EXCLUDED.last_score,
			last_regime = EXCLUDED.last_regime,
			suppression_count = EXCLUDED.suppression_count`

	_, err := ps.db.ExecContext(ctx, query,
		key.Symbol, key.Timeframe, key.AlertType,
		st.LastFired, st.LastScore, st.LastRegime, st.SuppressionCount)
	if err != nil {
		return fmt.Errorf("failed to write alert state for %s: %w", key, err)
	}
	return nil
}

func (ps *PostgresStore) Flush(_ context.Context) error {
	return nil
}

package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/confluence/internal/alerts"
)

// ConsoleNotifier writes alerts to the structured log.
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Name() string { return "console" }

func (c *ConsoleNotifier) Send(_ context.Context, ev alerts.AlertEvent) error {
	log.Info().
		Str("type", string(ev.Type)).
		Str("symbol", ev.Symbol).
		Str("timeframe", ev.Timeframe).
		Float64("confluence", ev.Confluence).
		Str("regime", ev.Regime).
		Bool("unpersisted", ev.Unpersisted).
		Msg(ev.Message)
	return nil
}

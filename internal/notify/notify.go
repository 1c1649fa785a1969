// Package notify fans alert events out to delivery channels. Delivery
// failures are logged and never abort the cycle that produced them.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/confluence/internal/alerts"
)

// Notifier delivers one alert event to a channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, event alerts.AlertEvent) error
}

// Dispatcher fans events out to every configured notifier, preserving
// event order per notifier.
type Dispatcher struct {
	notifiers []Notifier
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Dispatch sends each event through every notifier. Errors are
// per-notifier warnings; remaining events still go out.
func (d *Dispatcher) Dispatch(ctx context.Context, events []alerts.AlertEvent) {
	if len(events) == 0 {
		return
	}

	for _, n := range d.notifiers {
		for _, ev := range events {
			if err := n.Send(ctx, ev); err != nil {
				log.Warn().Err(err).
					Str("notifier", n.Name()).
					Str("symbol", ev.Symbol).
					Str("type", string(ev.Type)).
					Msg("alert delivery failed")
			}
		}
	}
}

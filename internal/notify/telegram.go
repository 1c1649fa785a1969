package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/confluence/internal/alerts"
)

// TelegramConfig configures the telegram channel.
type TelegramConfig struct {
	BotToken      string
	ChatID        int64
	RatePerSecond float64
}

// botClient is the slice of the telegram API the notifier uses,
// extracted so tests can stub delivery.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers alerts to a telegram chat. Sends are rate
// limited and wrapped in a circuit breaker so a flapping API cannot
// stall a cycle with per-event timeouts.
type TelegramNotifier struct {
	bot     botClient
	chatID  int64
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewTelegramNotifier authenticates against the bot API.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, cfg), nil
}

func newTelegramNotifier(bot botClient, cfg TelegramConfig) *TelegramNotifier {
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1.0
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &TelegramNotifier{
		bot:     bot,
		chatID:  cfg.ChatID,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		breaker: breaker,
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Send(ctx context.Context, ev alerts.AlertEvent) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limiter: %w", err)
	}

	text := fmt.Sprintf("🚨 *%s* on *%s* (%s)\nCS: %.1f\n%s",
		ev.Type, ev.Symbol, ev.Timeframe, ev.Confluence, ev.Message)

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := t.breaker.Execute(func() (interface{}, error) {
		return t.bot.Send(msg)
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

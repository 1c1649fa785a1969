package main

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/sawpanic/confluence/internal/alerts"
	"github.com/sawpanic/confluence/internal/alerts/state"
	"github.com/sawpanic/confluence/internal/config"
	"github.com/sawpanic/confluence/internal/metrics"
	"github.com/sawpanic/confluence/internal/notify"
	"github.com/sawpanic/confluence/internal/pipeline"
	"github.com/sawpanic/confluence/internal/regime"
	"github.com/sawpanic/confluence/internal/score"
)

// app holds the wired pipeline for one process lifetime.
type app struct {
	cfg        *config.Config
	store      state.Store
	runner     *pipeline.Runner
	dispatcher *notify.Dispatcher
	metrics    *metrics.Registry
}

// buildApp wires every component from the validated configuration.
// Configuration errors here are fatal by contract: the process must not
// run a single cycle on bad weights or thresholds.
func buildApp(cfg *config.Config) (*app, error) {
	applyLogLevel(cfg.Logging.Level)

	classifier, err := regime.NewClassifier(cfg.Regime)
	if err != nil {
		return nil, err
	}

	table, err := cfg.WeightTable()
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	evaluator, err := alerts.NewEvaluator(cfg.AlertConfig(), store)
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	runner := pipeline.NewRunner(
		classifier,
		score.NewAggregator(table),
		evaluator,
		store,
		reg,
		cfg.Scan.Workers,
	)

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		store:      store,
		runner:     runner,
		dispatcher: dispatcher,
		metrics:    reg,
	}, nil
}

func buildStore(cfg *config.Config) (state.Store, error) {
	switch cfg.Alerts.StateBackend {
	case "file":
		return state.NewFileStore(cfg.Alerts.StateFile), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Alerts.Redis.Addr,
			Password: cfg.Alerts.Redis.Password,
			DB:       cfg.Alerts.Redis.DB,
		})
		return state.NewRedisStore(client, cfg.Alerts.Redis.KeyPrefix), nil

	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.Alerts.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres state store: %w", err)
		}
		return state.NewPostgresStore(db, cfg.PostgresTimeout()), nil

	default:
		return nil, fmt.Errorf("unknown alerts state_backend %q", cfg.Alerts.StateBackend)
	}
}

func buildDispatcher(cfg *config.Config) (*notify.Dispatcher, error) {
	var notifiers []notify.Notifier

	if cfg.Notify.Console.Enabled {
		notifiers = append(notifiers, notify.NewConsoleNotifier())
	}
	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(notify.TelegramConfig{
			BotToken:      cfg.Notify.Telegram.BotToken,
			ChatID:        cfg.Notify.Telegram.ChatID,
			RatePerSecond: cfg.Notify.Telegram.RatePerSecond,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}

	return notify.NewDispatcher(notifiers...), nil
}

func applyLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// Package config loads and validates the single YAML configuration file.
// The resulting Config is immutable and passed explicitly into each
// component's constructor; nothing re-reads configuration mid-cycle.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/confluence/internal/alerts"
	"github.com/sawpanic/confluence/internal/regime"
)

// Config is the full process configuration.
type Config struct {
	Logging    LoggingConfig           `yaml:"logging"`
	Regime     regime.ClassifierConfig `yaml:"regime"`
	Confluence ConfluenceConfig        `yaml:"confluence"`
	Alerts     AlertsConfig            `yaml:"alerts"`
	Notify     NotifyConfig            `yaml:"notify"`
	HTTP       HTTPConfig              `yaml:"http"`
	Scan       ScanConfig              `yaml:"scan"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level string `yaml:"level"` // Default: info
}

// ConfluenceConfig holds the per-regime component weight vectors.
type ConfluenceConfig struct {
	RegimeWeights map[string]map[string]float64 `yaml:"regime_weights"`
}

// AlertsConfig embeds the evaluator thresholds plus state backend
// selection and per-type enable flags.
type AlertsConfig struct {
	alerts.Config `yaml:",inline"`

	Enabled bool            `yaml:"enabled"`
	Types   map[string]bool `yaml:"types"`

	StateBackend string         `yaml:"state_backend"` // file | redis | postgres
	StateFile    string         `yaml:"state_file"`
	Redis        RedisConfig    `yaml:"redis"`
	Postgres     PostgresConfig `yaml:"postgres"`
}

// RedisConfig configures the redis-backed state store.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// PostgresConfig configures the postgres-backed state store.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// NotifyConfig configures alert delivery.
type NotifyConfig struct {
	Console  ConsoleNotifyConfig  `yaml:"console"`
	Telegram TelegramNotifyConfig `yaml:"telegram"`
}

type ConsoleNotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

type TelegramNotifyConfig struct {
	Enabled       bool    `yaml:"enabled"`
	BotToken      string  `yaml:"bot_token"`
	ChatID        int64   `yaml:"chat_id"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// HTTPConfig configures the read-only ops server.
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// ScanConfig controls cycle execution.
type ScanConfig struct {
	Workers         int `yaml:"workers"`
	IntervalMinutes int `yaml:"interval_minutes"` // serve mode rescan interval
}

// Default returns the built-in configuration, matching the documented
// production defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Regime:  regime.DefaultClassifierConfig(),
		Confluence: ConfluenceConfig{
			RegimeWeights: map[string]map[string]float64{
				"bull": {
					"trend":             0.30,
					"volume":            0.25,
					"volatility":        0.10,
					"relative_strength": 0.25,
					"positioning":       0.10,
				},
				"sideways": {
					"trend":             0.20,
					"volume":            0.20,
					"volatility":        0.25,
					"relative_strength": 0.15,
					"positioning":       0.20,
				},
				"bear": {
					"trend":             0.15,
					"volume":            0.15,
					"volatility":        0.30,
					"relative_strength": 0.15,
					"positioning":       0.25,
				},
			},
		},
		Alerts: AlertsConfig{
			Enabled:      true,
			Config:       alerts.DefaultConfig(),
			StateBackend: "file",
			StateFile:    "alerts_state.json",
			Redis:        RedisConfig{Addr: "localhost:6379"},
			Postgres:     PostgresConfig{TimeoutSeconds: 5},
		},
		Notify: NotifyConfig{
			Console:  ConsoleNotifyConfig{Enabled: true},
			Telegram: TelegramNotifyConfig{RatePerSecond: 1.0},
		},
		HTTP: HTTPConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Scan: ScanConfig{
			Workers:         8,
			IntervalMinutes: 15,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. Validation failures are fatal by contract: bad weights or
// thresholds must stop the process before any cycle runs.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every section; any error must abort startup.
func (c *Config) Validate() error {
	if err := c.Regime.Validate(); err != nil {
		return err
	}
	if _, err := c.WeightTable(); err != nil {
		return err
	}
	if err := c.Alerts.Config.Validate(); err != nil {
		return err
	}
	for name := range c.Alerts.Types {
		if _, err := alerts.ParseAlertType(name); err != nil {
			return err
		}
	}
	switch c.Alerts.StateBackend {
	case "file", "redis", "postgres":
	default:
		return fmt.Errorf("unknown alerts state_backend %q", c.Alerts.StateBackend)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan workers must be > 0, got %d", c.Scan.Workers)
	}
	return nil
}

// WeightTable builds the validated regime weight table from the
// confluence section.
func (c *Config) WeightTable() (*regime.WeightTable, error) {
	vectors := make(map[regime.Regime]regime.WeightVector, len(c.Confluence.RegimeWeights))
	for name, raw := range c.Confluence.RegimeWeights {
		r, err := regime.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("confluence.regime_weights: %w", err)
		}
		wv := make(regime.WeightVector, len(raw))
		for comp, w := range raw {
			wv[comp] = w
		}
		vectors[r] = wv
	}
	return regime.NewWeightTable(vectors)
}

// AlertConfig resolves the evaluator config with per-type enables applied.
func (c *Config) AlertConfig() alerts.Config {
	cfg := c.Alerts.Config
	cfg.Enabled = make(map[alerts.AlertType]bool, len(alerts.AllTypes()))
	for _, t := range alerts.AllTypes() {
		cfg.Enabled[t] = c.Alerts.Enabled
	}
	for name, on := range c.Alerts.Types {
		if t, err := alerts.ParseAlertType(name); err == nil {
			cfg.Enabled[t] = on && c.Alerts.Enabled
		}
	}
	return cfg
}

// PostgresTimeout returns the configured store timeout.
func (c *Config) PostgresTimeout() time.Duration {
	return time.Duration(c.Alerts.Postgres.TimeoutSeconds) * time.Second
}

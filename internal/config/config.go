package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultEngineURL           = "ws://127.0.0.1:49080/ws"
	DefaultReconnectIntervalMs = 5000
	DefaultSettleDelayMs       = 100
	DefaultAtisPollIntervalS   = 60
)

// EngineConfig holds the audio engine connection parameters.
type EngineConfig struct {
	URL                 string `json:"url"`
	ReconnectIntervalMs int    `json:"reconnect_interval_ms"`
}

// AtisConfig configures the secondary read-only data feed poll.
type AtisConfig struct {
	Enabled       bool     `json:"enabled"`
	Endpoint      string   `json:"endpoint"`
	PollIntervalS int      `json:"poll_interval_s"`
	Stations      []string `json:"stations"`
}

// IndicatorConfig holds indicator rendering behavior.
type IndicatorConfig struct {
	SettleDelayMs int `json:"settle_delay_ms"`
}

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// NotificationConfig controls desktop notifications.
type NotificationConfig struct {
	ConnectionStatus bool `json:"connection_status"`
}

type AppConfig struct {
	Engine        EngineConfig       `json:"engine"`
	Atis          AtisConfig         `json:"atis"`
	Indicators    IndicatorConfig    `json:"indicators"`
	Logging       LoggingConfig      `json:"logging"`
	Notifications NotificationConfig `json:"notifications"`
}

func Default() AppConfig {
	return AppConfig{
		Engine: EngineConfig{
			URL:                 DefaultEngineURL,
			ReconnectIntervalMs: DefaultReconnectIntervalMs,
		},
		Atis: AtisConfig{
			Enabled:       false,
			PollIntervalS: DefaultAtisPollIntervalS,
		},
		Indicators: IndicatorConfig{
			SettleDelayMs: DefaultSettleDelayMs,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Notifications: NotificationConfig{
			ConnectionStatus: true,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if strings.TrimSpace(c.Engine.URL) == "" {
		c.Engine.URL = DefaultEngineURL
	}
	if c.Engine.ReconnectIntervalMs <= 0 {
		c.Engine.ReconnectIntervalMs = DefaultReconnectIntervalMs
	}
	if c.Indicators.SettleDelayMs < 0 {
		c.Indicators.SettleDelayMs = DefaultSettleDelayMs
	}
	if c.Atis.PollIntervalS <= 0 {
		c.Atis.PollIntervalS = DefaultAtisPollIntervalS
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c AppConfig) Validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.Engine.URL))
	if err != nil {
		return fmt.Errorf("engine url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("engine url must use ws or wss scheme: %q", c.Engine.URL)
	}
	if parsed.Host == "" {
		return errors.New("engine url host is required")
	}
	if c.Engine.ReconnectIntervalMs <= 0 {
		return errors.New("reconnect interval must be positive")
	}
	if c.Atis.Enabled && len(c.Atis.Stations) == 0 {
		return errors.New("atis polling is enabled but no stations are configured")
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}

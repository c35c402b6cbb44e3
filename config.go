package portt

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for portt, loaded from a TOML file. Zero
// values fall back to the defaults below, so a partial file is fine.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Cache    CacheConfig    `toml:"cache"`
	Metrics  MetricsToml    `toml:"metrics"`
	State    StateConfig    `toml:"state"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ProviderConfig configures the market data client.
type ProviderConfig struct {
	BaseURL    string `toml:"base_url"`
	Timeout    string `toml:"timeout"`
	MaxRetries int    `toml:"max_retries"`
	RateLimit  int    `toml:"rate_limit"` // requests per second
}

// GetTimeout parses and returns the request timeout.
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// CacheConfig configures the price cache.
type CacheConfig struct {
	TTL         string `toml:"ttl"`
	StaleWindow string `toml:"stale_window"`
}

// GetTTL parses and returns the quote time-to-live.
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetStaleWindow parses and returns the stale fallback bound.
func (c *CacheConfig) GetStaleWindow() time.Duration {
	d, err := time.ParseDuration(c.StaleWindow)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// MetricsToml is the file form of the metrics configuration. The risk
// boundaries live here, in configuration, not as hidden constants.
type MetricsToml struct {
	Window          int     `toml:"window"`
	MediumThreshold float64 `toml:"medium_threshold"`
	HighThreshold   float64 `toml:"high_threshold"`
}

// MetricsConfig converts the file form to the engine configuration,
// applying defaults for unset values.
func (m MetricsToml) MetricsConfig() MetricsConfig {
	cfg := DefaultMetricsConfig()
	if m.Window >= 2 {
		cfg.Window = m.Window
	}
	if m.MediumThreshold > 0 {
		cfg.Thresholds.Medium = m.MediumThreshold
	}
	if m.HighThreshold > 0 {
		cfg.Thresholds.High = m.HighThreshold
	}
	return cfg
}

// StateConfig locates the durable state.
type StateConfig struct {
	Path    string `toml:"path"`     // encrypted state blob
	KeyFile string `toml:"key_file"` // master key file
}

// LoggingConfig configures the console logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Provider: ProviderConfig{
			BaseURL:    "https://query1.finance.yahoo.com",
			Timeout:    "10s",
			MaxRetries: 3,
			RateLimit:  5,
		},
		Cache: CacheConfig{
			TTL:         "5m",
			StaleWindow: "24h",
		},
		Metrics: MetricsToml{
			Window:          20,
			MediumThreshold: 0.20,
			HighThreshold:   0.45,
		},
		State: StateConfig{
			Path:    home + "/.portt_state.enc",
			KeyFile: home + "/.portt_master.key",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads a TOML configuration file, layering it over the
// defaults. A missing file is not an error: the defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("cannot read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config %q: %w", path, err)
	}
	return cfg, nil
}

package portt

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.BaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("base URL = %q", cfg.Provider.BaseURL)
	}
	if got := cfg.Cache.GetTTL(); got != 5*time.Minute {
		t.Errorf("ttl = %s, want 5m", got)
	}
	if got := cfg.Cache.GetStaleWindow(); got != 24*time.Hour {
		t.Errorf("stale window = %s, want 24h", got)
	}
}

func TestLoadConfig_PartialFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portt.toml")
	content := `
[cache]
ttl = "30s"

[metrics]
window = 10
high_threshold = 0.60
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Cache.GetTTL(); got != 30*time.Second {
		t.Errorf("ttl = %s, want 30s", got)
	}
	// Unset sections keep their defaults.
	if cfg.Provider.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.Provider.MaxRetries)
	}

	mc := cfg.Metrics.MetricsConfig()
	if mc.Window != 10 {
		t.Errorf("window = %d, want 10", mc.Window)
	}
	if mc.Thresholds.High != 0.60 {
		t.Errorf("high threshold = %g, want 0.60", mc.Thresholds.High)
	}
	if mc.Thresholds.Medium != 0.20 {
		t.Errorf("medium threshold = %g, want the 0.20 default", mc.Thresholds.Medium)
	}
}

func TestLoadConfig_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portt.toml")
	if err := os.WriteFile(path, []byte("cache = {"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for malformed TOML")
	}
}

func TestMetricsToml_RejectsDegenerateWindow(t *testing.T) {
	mc := MetricsToml{Window: 1}.MetricsConfig()
	if mc.Window != 20 {
		t.Errorf("window = %d, want the 20 default (volatility needs at least 2 points)", mc.Window)
	}
}

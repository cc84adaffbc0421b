package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every override so tests are not affected by the caller's
// environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STOCKINTEL_API_URL", "STOCKINTEL_TIMEOUT", "STOCKINTEL_PORT",
		"DATA_DIR", "SQLITE_PATH", "COLLECTOR_SOURCE", "HTTPS_PROXY",
		"REDIS_ADDR", "REDIS_PASSWORD", "LOG_LEVEL",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
client:
  base_url: "http://api.internal:9000"
  timeout: 5s
  days: 90
  insights_limit: 10
server:
  host: "127.0.0.1"
  port: 8100
storage:
  data_dir: "/tmp/stockintel/data"
  sqlite_path: "/tmp/stockintel/stocks.db"
collector:
  source: "yahoo"
  lookback_days: 180
  cron: "30 17 * * 1-5"
  universe:
    - ticker: "TCS.NS"
      symbol: "TCS"
      name: "Tata Consultancy Services"
      sector: "IT"
redis:
  addr: "localhost:6379"
  ttl: 1m
logging:
  level: "debug"
  format: "json"
`)

	path := filepath.Join(t.TempDir(), "stockintel.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Client --
	if cfg.Client.BaseURL != "http://api.internal:9000" {
		t.Errorf("Client.BaseURL = %q, want %q", cfg.Client.BaseURL, "http://api.internal:9000")
	}
	if cfg.Client.Timeout != 5*time.Second {
		t.Errorf("Client.Timeout = %s, want 5s", cfg.Client.Timeout)
	}
	if cfg.Client.Days != 90 {
		t.Errorf("Client.Days = %d, want 90", cfg.Client.Days)
	}
	if cfg.Client.InsightsLimit != 10 {
		t.Errorf("Client.InsightsLimit = %d, want 10", cfg.Client.InsightsLimit)
	}

	// -- Server --
	if cfg.Server.Addr() != "127.0.0.1:8100" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "127.0.0.1:8100")
	}

	// -- Storage --
	if cfg.Storage.SQLitePath != "/tmp/stockintel/stocks.db" {
		t.Errorf("Storage.SQLitePath = %q", cfg.Storage.SQLitePath)
	}

	// -- Collector --
	if cfg.Collector.LookbackDays != 180 {
		t.Errorf("Collector.LookbackDays = %d, want 180", cfg.Collector.LookbackDays)
	}
	if len(cfg.Collector.Universe) != 1 || cfg.Collector.Universe[0].Symbol != "TCS" {
		t.Errorf("Collector.Universe = %+v, want single TCS listing", cfg.Collector.Universe)
	}
	// Unset fields keep their defaults.
	if cfg.Collector.MaxWorkers != 4 {
		t.Errorf("Collector.MaxWorkers = %d, want default 4", cfg.Collector.MaxWorkers)
	}

	// -- Redis --
	if cfg.Redis.TTL != time.Minute {
		t.Errorf("Redis.TTL = %s, want 1m", cfg.Redis.TTL)
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Client.BaseURL != "http://localhost:8000" {
		t.Errorf("Client.BaseURL = %q, want default", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout != 10*time.Second {
		t.Errorf("Client.Timeout = %s, want 10s", cfg.Client.Timeout)
	}
	if cfg.Client.Days != 30 || cfg.Client.InsightsLimit != 5 {
		t.Errorf("Client = %+v, want days 30 limit 5", cfg.Client)
	}
	if len(cfg.Collector.Universe) != len(DefaultUniverse) {
		t.Errorf("Universe has %d listings, want %d", len(cfg.Collector.Universe), len(DefaultUniverse))
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
client:
  base_url: "http://yaml:8000"
storage:
  sqlite_path: "/yaml/stocks.db"
`)
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STOCKINTEL_API_URL", "http://env:8000")
	t.Setenv("STOCKINTEL_TIMEOUT", "3s")
	t.Setenv("APCA_API_KEY_ID", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Client.BaseURL != "http://env:8000" {
		t.Errorf("Client.BaseURL = %q, want %q (env override)", cfg.Client.BaseURL, "http://env:8000")
	}
	if cfg.Client.Timeout != 3*time.Second {
		t.Errorf("Client.Timeout = %s, want 3s (env override)", cfg.Client.Timeout)
	}
	// sqlite_path should remain from YAML since no env override was set.
	if cfg.Storage.SQLitePath != "/yaml/stocks.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q (from YAML)", cfg.Storage.SQLitePath, "/yaml/stocks.db")
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "env-key")
	}
}

func TestLoadBadTimeoutOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOCKINTEL_TIMEOUT", "soon")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() should fail on an unparsable STOCKINTEL_TIMEOUT")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"relative url", func(c *Config) { c.Client.BaseURL = "localhost:8000" }, true},
		{"zero timeout", func(c *Config) { c.Client.Timeout = 0 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown source", func(c *Config) { c.Collector.Source = "bloomberg" }, true},
		{"alpaca without keys", func(c *Config) { c.Collector.Source = "alpaca" }, true},
		{"alpaca with keys", func(c *Config) {
			c.Collector.Source = "alpaca"
			c.Alpaca.APIKey = "k"
			c.Alpaca.APISecret = "s"
		}, false},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

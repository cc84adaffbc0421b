package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockintel binaries.
type Config struct {
	Client    Client    `yaml:"client"`
	Server    Server    `yaml:"server"`
	Storage   Storage   `yaml:"storage"`
	Collector Collector `yaml:"collector"`
	Alpaca    Alpaca    `yaml:"alpaca"`
	Redis     Redis     `yaml:"redis"`
	Logging   Logging   `yaml:"logging"`
}

// Client configures the dashboard and CLI as consumers of the REST API.
type Client struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Days          int           `yaml:"days"`
	InsightsLimit int           `yaml:"insights_limit"`
}

// Server holds network listener configuration for the backend.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Collector controls how the backend populates its store.
type Collector struct {
	Source       string        `yaml:"source"` // "yahoo" or "alpaca"
	LookbackDays int           `yaml:"lookback_days"`
	Cron         string        `yaml:"cron"`
	OnStart      bool          `yaml:"on_start"`
	MaxWorkers   int           `yaml:"max_workers"`
	RatePerMin   int           `yaml:"rate_limit_per_min"`
	Proxy        string        `yaml:"proxy"`
	Timeout      time.Duration `yaml:"timeout"`
	Universe     []Listing     `yaml:"universe"`
}

// Listing is one company the collector tracks. Ticker is the data-source
// symbol (e.g. "TCS.NS"); Symbol is what the API exposes.
type Listing struct {
	Ticker string `yaml:"ticker"`
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
	Sector string `yaml:"sector"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// Redis configures the optional response cache. An empty Addr disables it.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// DefaultUniverse is the set of NSE listings collected when none are
// configured.
var DefaultUniverse = []Listing{
	{Ticker: "RELIANCE.NS", Symbol: "RELIANCE", Name: "Reliance Industries", Sector: "Energy"},
	{Ticker: "TCS.NS", Symbol: "TCS", Name: "Tata Consultancy Services", Sector: "IT"},
	{Ticker: "INFY.NS", Symbol: "INFY", Name: "Infosys", Sector: "IT"},
	{Ticker: "HDFCBANK.NS", Symbol: "HDFCBANK", Name: "HDFC Bank", Sector: "Banking"},
	{Ticker: "ICICIBANK.NS", Symbol: "ICICIBANK", Name: "ICICI Bank", Sector: "Banking"},
	{Ticker: "HINDUNILVR.NS", Symbol: "HINDUNILVR", Name: "Hindustan Unilever", Sector: "FMCG"},
	{Ticker: "ITC.NS", Symbol: "ITC", Name: "ITC Limited", Sector: "FMCG"},
	{Ticker: "SBIN.NS", Symbol: "SBIN", Name: "State Bank of India", Sector: "Banking"},
	{Ticker: "BHARTIARTL.NS", Symbol: "BHARTIARTL", Name: "Bharti Airtel", Sector: "Telecom"},
	{Ticker: "WIPRO.NS", Symbol: "WIPRO", Name: "Wipro", Sector: "IT"},
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Client: Client{
			BaseURL:       "http://localhost:8000",
			Timeout:       10 * time.Second,
			Days:          30,
			InsightsLimit: 5,
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/stocks.db",
		},
		Collector: Collector{
			Source:       "yahoo",
			LookbackDays: 365,
			Cron:         "0 18 * * 1-5",
			OnStart:      true,
			MaxWorkers:   4,
			RatePerMin:   60,
			Timeout:      30 * time.Second,
		},
		Redis: Redis{
			TTL: 5 * time.Minute,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults and then applies environment variable overrides. A missing file
// is not an error: the defaults (plus overrides) are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Collector.Universe) == 0 {
		cfg.Collector.Universe = DefaultUniverse
	}

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("STOCKINTEL_API_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := os.Getenv("STOCKINTEL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STOCKINTEL_TIMEOUT: %w", err)
		}
		cfg.Client.Timeout = d
	}

	if v := os.Getenv("STOCKINTEL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STOCKINTEL_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("COLLECTOR_SOURCE"); v != "" {
		cfg.Collector.Source = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Collector.Proxy == "" {
		cfg.Collector.Proxy = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	return nil
}

// Validate checks the fields every binary depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("client.base_url %q is not an absolute URL", c.Client.BaseURL)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Collector.Source {
	case "yahoo":
	case "alpaca":
		if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
			return errors.New("collector.source is alpaca but alpaca credentials are missing")
		}
	default:
		return fmt.Errorf("collector.source %q is not one of yahoo, alpaca", c.Collector.Source)
	}
	return nil
}

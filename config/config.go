package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrader/iex"
	"github.com/rustyeddy/papertrader/internal/database"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/pkg/logger"
)

// Config is the complete papertrader configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Quotes  QuotesConfig  `json:"quotes" yaml:"quotes"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// AccountConfig selects the default account and its opening cash
type AccountConfig struct {
	ID          string `json:"id" yaml:"id"`
	OpeningCash string `json:"opening_cash" yaml:"opening_cash"`
}

// Opening parses OpeningCash.
func (a AccountConfig) Opening() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.OpeningCash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account.opening_cash %q: %w", a.OpeningCash, err)
	}
	return d, nil
}

// StoreConfig selects where accounts and the ledger live
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"` // "sqlite" or "pebble"
	Driver  string `json:"driver,omitempty" yaml:"driver,omitempty"`
	Path    string `json:"path" yaml:"path"`
}

// Database returns the SQL connection settings for the sqlite backend.
func (s StoreConfig) Database() database.Config {
	return database.Config{Driver: s.Driver, Path: s.Path}
}

// QuotesConfig selects the quote provider
type QuotesConfig struct {
	Provider string                 `json:"provider" yaml:"provider"` // "static" or "iex"
	BaseURL  string                 `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token    string                 `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout  string                 `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "8s"
	Static   map[string]StaticQuote `json:"static,omitempty" yaml:"static,omitempty"`
}

// StaticQuote is a fixed quote for the static provider
type StaticQuote struct {
	Name  string `json:"name" yaml:"name"`
	Price string `json:"price" yaml:"price"`
}

// ParseTimeout converts Timeout to a time.Duration
func (q QuotesConfig) ParseTimeout() (time.Duration, error) {
	if q.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(q.Timeout)
}

// Source builds the configured quote provider.
func (q QuotesConfig) Source() (market.QuoteSource, error) {
	switch q.Provider {
	case "static":
		table := market.NewQuoteTable()
		for sym, sq := range q.Static {
			price, err := decimal.NewFromString(sq.Price)
			if err != nil {
				return nil, fmt.Errorf("quotes.static.%s.price %q: %w", sym, sq.Price, err)
			}
			table.Set(market.Quote{Symbol: sym, Name: sq.Name, Price: price})
		}
		return table, nil
	case "iex":
		timeout, err := q.ParseTimeout()
		if err != nil {
			return nil, fmt.Errorf("quotes.timeout: %w", err)
		}
		return iex.NewClient(q.BaseURL, q.Token, timeout), nil
	default:
		return nil, fmt.Errorf("unknown quote provider %q", q.Provider)
	}
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// Logger returns the logger settings.
func (l LogConfig) Logger() logger.Config {
	return logger.Config{Level: l.Level, Pretty: l.Pretty}
}

// LoadFromFile loads configuration from a file (YAML or JSON). The result is
// not validated; callers apply ApplyEnv first and then Validate.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	cfg := base()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = base()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	if cfg.Quotes.Static == nil {
		cfg.Quotes.Static = Default().Quotes.Static
	}

	return cfg, nil
}

// base is Default without the static quote table, so a file's table
// replaces the defaults instead of merging into them.
func base() *Config {
	cfg := Default()
	cfg.Quotes.Static = nil
	return cfg
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file if present, then lets the environment override
// the quote token, store path and log level.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("API_KEY"); v != "" {
		c.Quotes.Token = v
	}
	if v := os.Getenv("PAPERTRADER_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("PAPERTRADER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	opening, err := c.Account.Opening()
	if err != nil {
		return err
	}
	if opening.IsNegative() {
		return fmt.Errorf("account.opening_cash must not be negative")
	}

	switch c.Store.Backend {
	case "sqlite":
		switch c.Store.Driver {
		case "", database.DriverCGO, database.DriverPureGo:
		default:
			return fmt.Errorf("store.driver must be '%s' or '%s'", database.DriverCGO, database.DriverPureGo)
		}
	case "pebble":
	default:
		return fmt.Errorf("store.backend must be 'sqlite' or 'pebble'")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	switch c.Quotes.Provider {
	case "static":
		if len(c.Quotes.Static) == 0 {
			return fmt.Errorf("quotes.static requires at least one symbol")
		}
		for sym, sq := range c.Quotes.Static {
			price, err := decimal.NewFromString(sq.Price)
			if err != nil || !price.IsPositive() {
				return fmt.Errorf("quotes.static.%s.price must be a positive number", sym)
			}
		}
	case "iex":
		if c.Quotes.Token == "" {
			return fmt.Errorf("quotes.token required for iex provider (or set API_KEY)")
		}
		if _, err := c.Quotes.ParseTimeout(); err != nil {
			return fmt.Errorf("quotes.timeout: %w", err)
		}
	default:
		return fmt.Errorf("quotes.provider must be 'static' or 'iex'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:          "default",
			OpeningCash: "10000.00",
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Driver:  database.DriverCGO,
			Path:    "./papertrader.db",
		},
		Quotes: QuotesConfig{
			Provider: "static",
			BaseURL:  iex.DefaultBaseURL,
			Timeout:  "8s",
			Static: map[string]StaticQuote{
				"NFLX": {Name: "Netflix Inc.", Price: "100.00"},
				"GOOG": {Name: "Alphabet Inc.", Price: "2800.00"},
				"AAPL": {Name: "Apple Inc.", Price: "150.00"},
			},
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

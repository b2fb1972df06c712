package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quant/verify"
)

// Config represents a complete backtest run configuration
type Config struct {
	InitialCash float64        `json:"initial_cash" yaml:"initial_cash"`
	Seed        int64          `json:"seed" yaml:"seed"`
	Strategy    StrategyConfig `json:"strategy" yaml:"strategy"`
	Costs       CostConfig     `json:"costs" yaml:"costs"`
	Policy      verify.Policy  `json:"policy" yaml:"policy"`
	Data        DataConfig     `json:"data" yaml:"data"`
	Journal     JournalConfig  `json:"journal" yaml:"journal"`
	Output      OutputConfig   `json:"output" yaml:"output"`
	Store       StoreConfig    `json:"store" yaml:"store"`
}

// StrategyConfig selects and parameterizes a strategy
type StrategyConfig struct {
	Name        string  `json:"name" yaml:"name"` // "ts_momentum", "buy_hold", "noop"
	Symbol      string  `json:"symbol" yaml:"symbol"`
	Lookback    int     `json:"lookback,omitempty" yaml:"lookback,omitempty"`
	VolTarget   float64 `json:"vol_target,omitempty" yaml:"vol_target,omitempty"`
	VolLookback int     `json:"vol_lookback,omitempty" yaml:"vol_lookback,omitempty"`
	Quantity    float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// CostConfig selects and parameterizes a cost model
type CostConfig struct {
	Model    string  `json:"model" yaml:"model"` // "fixed_per_share", "percentage", "zero"
	PerShare float64 `json:"per_share,omitempty" yaml:"per_share,omitempty"`
	Rate     float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Minimum  float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
}

// DataConfig points at the bar data to replay
type DataConfig struct {
	Path string `json:"path" yaml:"path"` // .csv, .csv.xz or .parquet
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// OutputConfig controls where run outputs land
type OutputConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// StoreConfig points at the artifact repository
type StoreConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoadFromFile loads configuration from a file. YAML is tried first with a
// JSON fallback, so either format works regardless of extension.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML or JSON by extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be positive")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}

	switch c.Strategy.Name {
	case "ts_momentum":
		if c.Strategy.Symbol == "" {
			return fmt.Errorf("strategy.symbol is required")
		}
		if c.Strategy.Lookback <= 0 {
			return fmt.Errorf("strategy.lookback must be positive")
		}
		if c.Strategy.VolTarget <= 0 {
			return fmt.Errorf("strategy.vol_target must be positive")
		}
		if c.Strategy.VolLookback <= 1 {
			return fmt.Errorf("strategy.vol_lookback must be at least 2")
		}
	case "buy_hold":
		if c.Strategy.Symbol == "" {
			return fmt.Errorf("strategy.symbol is required")
		}
		if c.Strategy.Quantity <= 0 {
			return fmt.Errorf("strategy.quantity must be positive")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}

	switch c.Costs.Model {
	case "fixed_per_share":
		if c.Costs.PerShare < 0 {
			return fmt.Errorf("costs.per_share cannot be negative")
		}
	case "percentage":
		if c.Costs.Rate < 0 || c.Costs.Rate > 1 {
			return fmt.Errorf("costs.rate must be between 0 and 1")
		}
	case "zero":
	default:
		return fmt.Errorf("unknown cost model: %s", c.Costs.Model)
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if p := c.Policy.MaxDrawdown; p != nil && (*p < 0 || *p > 1) {
		return fmt.Errorf("policy.max_drawdown must be between 0 and 1")
	}
	if p := c.Policy.MaxLeverage; p != nil && *p <= 0 {
		return fmt.Errorf("policy.max_leverage must be positive")
	}

	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		InitialCash: 100_000,
		Seed:        42,
		Strategy: StrategyConfig{
			Name:        "ts_momentum",
			Lookback:    20,
			VolTarget:   0.15,
			VolLookback: 20,
		},
		Costs: CostConfig{
			Model:    "fixed_per_share",
			PerShare: 0.005,
			Minimum:  1.0,
		},
		Policy: verify.DefaultPolicy(),
		Journal: JournalConfig{
			Type: "none",
		},
	}
}

// Package config loads and validates backtest run files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tradesim/internal/broker"
	"tradesim/internal/engine"
	"tradesim/types"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config represents one backtest run and, optionally, the variants of a sweep.
type Config struct {
	Name        string             `json:"name" yaml:"name"`
	Account     AccountConfig      `json:"account" yaml:"account"`
	Execution   ExecutionConfig    `json:"execution" yaml:"execution"`
	Broker      BrokerConfig       `json:"broker" yaml:"broker"`
	Data        DataConfig         `json:"data" yaml:"data"`
	Instruments []InstrumentConfig `json:"instruments" yaml:"instruments"`
	Risk        RiskConfig         `json:"risk" yaml:"risk"`
	Report      ReportConfig       `json:"report" yaml:"report"`
	Sweep       SweepConfig        `json:"sweep" yaml:"sweep"`
}

type AccountConfig struct {
	Currency    string          `json:"currency" yaml:"currency"`
	InitialCash decimal.Decimal `json:"initial_cash" yaml:"initial_cash"`
}

// ExecutionConfig drives the time grid. Empty start or end are taken from the loaded bars.
type ExecutionConfig struct {
	Granularity string `json:"granularity" yaml:"granularity"`
	Start       string `json:"start,omitempty" yaml:"start,omitempty"`
	End         string `json:"end,omitempty" yaml:"end,omitempty"`
	Lookback    int    `json:"lookback" yaml:"lookback"`
}

type BrokerConfig struct {
	Name        string          `json:"name" yaml:"name"`
	Fee         FeeConfig       `json:"fee" yaml:"fee"`
	SlippageBps decimal.Decimal `json:"slippage_bps" yaml:"slippage_bps"`
}

// FeeConfig selects a fee model: none, flat, proportional, tiered, ibkr-nl or ibkr-fx.
type FeeConfig struct {
	Model  string          `json:"model" yaml:"model"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
	Rate   decimal.Decimal `json:"rate" yaml:"rate"`
	Min    decimal.Decimal `json:"min" yaml:"min"`
	Max    decimal.Decimal `json:"max" yaml:"max"`
}

// DataConfig selects the bar source. Postgres reads its DSN from the DSNEnv variable.
type DataConfig struct {
	Source string `json:"source" yaml:"source"` // "postgres" or "csv"
	DSNEnv string `json:"dsn_env,omitempty" yaml:"dsn_env,omitempty"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

type InstrumentConfig struct {
	Ticker   string         `json:"ticker" yaml:"ticker"`
	Interval string         `json:"interval" yaml:"interval"`
	Start    string         `json:"start,omitempty" yaml:"start,omitempty"`
	End      string         `json:"end,omitempty" yaml:"end,omitempty"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
}

type StrategyConfig struct {
	Name   string `json:"name" yaml:"name"`
	Period int    `json:"period" yaml:"period"`
}

// RiskConfig sizes entries as a fraction of the available cash. Zero disables sizing.
type RiskConfig struct {
	PositionPercent decimal.Decimal `json:"position_percent" yaml:"position_percent"`
}

type ReportConfig struct {
	JSONFile   string `json:"json_file,omitempty" yaml:"json_file,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// SweepConfig lists strategy overrides run side by side against the same bars.
type SweepConfig struct {
	Parallelism int       `json:"parallelism" yaml:"parallelism"`
	Variants    []Variant `json:"variants,omitempty" yaml:"variants,omitempty"`
}

type Variant struct {
	Name            string          `json:"name" yaml:"name"`
	Period          int             `json:"period,omitempty" yaml:"period,omitempty"`
	PositionPercent decimal.Decimal `json:"position_percent" yaml:"position_percent"`
}

// LoadFromFile loads configuration from a file, YAML first with JSON as fallback.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	cfg.Instruments = nil

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
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
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Account.Currency == "" {
		return invalid("account.currency is required")
	}
	if c.Account.InitialCash.IsNegative() {
		return invalid("account.initial_cash must not be negative")
	}
	if _, err := types.ParseGranularity(c.Execution.Granularity); err != nil {
		return invalid("execution.granularity: %v", err)
	}
	if c.Execution.Lookback < 0 {
		return invalid("execution.lookback must not be negative")
	}
	start, err := parseTime(c.Execution.Start)
	if err != nil {
		return invalid("execution.start: %v", err)
	}
	end, err := parseTime(c.Execution.End)
	if err != nil {
		return invalid("execution.end: %v", err)
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return invalid("execution.end must be after execution.start")
	}
	if _, err := c.Broker.Fee.FeeModel(); err != nil {
		return invalid("broker.fee: %v", err)
	}
	if c.Broker.SlippageBps.IsNegative() {
		return invalid("broker.slippage_bps must not be negative")
	}

	switch c.Data.Source {
	case "postgres":
		if c.Data.DSNEnv == "" {
			return invalid("data.dsn_env required for postgres source")
		}
	case "csv":
		if c.Data.Dir == "" {
			return invalid("data.dir required for csv source")
		}
	default:
		return invalid("data.source must be 'postgres' or 'csv'")
	}

	if len(c.Instruments) == 0 {
		return invalid("at least one instrument is required")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for i, inst := range c.Instruments {
		if inst.Ticker == "" {
			return invalid("instruments[%d].ticker is required", i)
		}
		if seen[inst.Ticker] {
			return invalid("instruments[%d]: duplicate ticker %s", i, inst.Ticker)
		}
		seen[inst.Ticker] = true
		if _, err := types.ParseInterval(inst.Interval); err != nil {
			return invalid("instruments[%d].interval: %v", i, err)
		}
		if _, err := parseTime(inst.Start); err != nil {
			return invalid("instruments[%d].start: %v", i, err)
		}
		if _, err := parseTime(inst.End); err != nil {
			return invalid("instruments[%d].end: %v", i, err)
		}
		if inst.Strategy.Period < 0 {
			return invalid("instruments[%d].strategy.period must not be negative", i)
		}
	}

	if c.Risk.PositionPercent.IsNegative() || c.Risk.PositionPercent.GreaterThan(decimal.NewFromInt(1)) {
		return invalid("risk.position_percent must be between 0 and 1")
	}
	if c.Sweep.Parallelism < 0 {
		return invalid("sweep.parallelism must not be negative")
	}
	names := make(map[string]bool, len(c.Sweep.Variants))
	for i, v := range c.Sweep.Variants {
		if v.Name == "" {
			return invalid("sweep.variants[%d].name is required", i)
		}
		if names[v.Name] {
			return invalid("sweep.variants[%d]: duplicate name %s", i, v.Name)
		}
		names[v.Name] = true
		if v.PositionPercent.IsNegative() || v.PositionPercent.GreaterThan(decimal.NewFromInt(1)) {
			return invalid("sweep.variants[%d].position_percent must be between 0 and 1", i)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Name: "backtest",
		Account: AccountConfig{
			Currency:    "USD",
			InitialCash: decimal.NewFromInt(100000),
		},
		Execution: ExecutionConfig{
			Granularity: string(types.Day),
		},
		Broker: BrokerConfig{
			Name: "ibkr",
			Fee:  FeeConfig{Model: "ibkr-nl"},
		},
		Data: DataConfig{
			Source: "postgres",
			DSNEnv: "DATABASE_URL",
		},
		Instruments: []InstrumentConfig{
			{
				Ticker:   "AAPL",
				Interval: string(types.Week),
				Strategy: StrategyConfig{Name: "donchian", Period: 20},
			},
		},
		Risk: RiskConfig{
			PositionPercent: decimal.RequireFromString("0.25"),
		},
		Sweep: SweepConfig{
			Parallelism: 4,
		},
	}
}

// FeeModel builds the fee model the config describes.
func (f FeeConfig) FeeModel() (broker.FeeModel, error) {
	switch strings.ToLower(f.Model) {
	case "", "none":
		return broker.FlatFee{}, nil
	case "flat":
		return broker.FlatFee{Amount: f.Amount}, nil
	case "proportional":
		return broker.ProportionalFee{Rate: f.Rate}, nil
	case "tiered":
		return broker.TieredFee{Rate: f.Rate, Min: f.Min, Max: f.Max}, nil
	case "ibkr-nl":
		return broker.IBKRNetherlandsFixedUSD(), nil
	case "ibkr-fx":
		return broker.IBKRForexTier1(), nil
	default:
		return nil, fmt.Errorf("unknown fee model %q", f.Model)
	}
}

// NewBroker builds the simulated broker. Call Validate first.
func (c *Config) NewBroker() (*broker.Simulated, error) {
	fees, err := c.Broker.Fee.FeeModel()
	if err != nil {
		return nil, err
	}
	opts := []broker.Option{broker.WithSlippageBps(c.Broker.SlippageBps)}
	if c.Broker.Name != "" {
		opts = append(opts, broker.WithName(c.Broker.Name))
	}
	return broker.NewSimulated(fees, opts...), nil
}

func (c *Config) PortfolioConfig() *engine.PortfolioConfig {
	return engine.NewPortfolioConfig(c.Account.InitialCash, c.Account.Currency)
}

func (c *Config) ExecutionConfig() (*engine.ExecutionConfig, error) {
	granularity, err := types.ParseGranularity(c.Execution.Granularity)
	if err != nil {
		return nil, err
	}
	start, err := parseTime(c.Execution.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseTime(c.Execution.End)
	if err != nil {
		return nil, err
	}
	return engine.NewExecutionConfig(granularity, start, end, c.Execution.Lookback), nil
}

// StrategyFactory builds the strategy configured for one instrument.
type StrategyFactory func(ticker string, cfg StrategyConfig) (engine.Strategy, error)

func (c *Config) InstrumentConfigs(newStrategy StrategyFactory) ([]*engine.InstrumentConfig, error) {
	out := make([]*engine.InstrumentConfig, 0, len(c.Instruments))
	for _, inst := range c.Instruments {
		interval, err := types.ParseInterval(inst.Interval)
		if err != nil {
			return nil, err
		}
		start, err := parseTime(inst.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseTime(inst.End)
		if err != nil {
			return nil, err
		}
		var strategies []engine.Strategy
		if inst.Strategy.Name != "" {
			s, err := newStrategy(inst.Ticker, inst.Strategy)
			if err != nil {
				return nil, fmt.Errorf("%s strategy: %w", inst.Ticker, err)
			}
			strategies = append(strategies, s)
		}
		out = append(out, engine.NewInstrumentConfig(inst.Ticker, interval, start, end, strategies...))
	}
	return engine.NewInstrumentConfigs(out...), nil
}

// WithVariant returns a copy of the config with the variant's overrides applied.
func (c *Config) WithVariant(v Variant) *Config {
	cp := *c
	cp.Name = v.Name
	cp.Instruments = make([]InstrumentConfig, len(c.Instruments))
	copy(cp.Instruments, c.Instruments)
	if v.Period > 0 {
		for i := range cp.Instruments {
			cp.Instruments[i].Strategy.Period = v.Period
		}
	}
	if v.PositionPercent.IsPositive() {
		cp.Risk.PositionPercent = v.PositionPercent
	}
	return &cp
}

// parseTime accepts RFC 3339 or YYYY-MM-DD. An empty string is the zero time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of the trading system. It is built once at
// startup, validated, and injected everywhere — no component reads the process
// environment directly.
type Config struct {
	Trading   TradingConfig     `yaml:"trading"`
	Risk      RiskLimits        `yaml:"risk"`
	Promotion PromotionCriteria `yaml:"promotion"`
	Demotion  DemotionCriteria  `yaml:"demotion"`
	Platform  PlatformConfig    `yaml:"platform"`
	Storage   StorageConfig     `yaml:"storage"`
	Log       LogConfig         `yaml:"log"`
}

// TradingConfig controls the main loop and the global live-trading switch.
type TradingConfig struct {
	Symbol                string  `yaml:"symbol"`
	IntervalSeconds       int     `yaml:"interval_seconds"`
	InitialBalance        float64 `yaml:"initial_balance"`
	AllowLive             bool    `yaml:"allow_live"` // must be manually flipped; defaults to false
	ReportIntervalMinutes int     `yaml:"report_interval_minutes"`
}

// RiskLimits are the immutable thresholds the governor enforces.
type RiskLimits struct {
	CapitalCap       float64 `yaml:"capital_cap"`  // fraction of total capital usable
	MaxPosition      float64 `yaml:"max_position"` // fraction of usable capital per trade
	MaxTradesPerHour int     `yaml:"max_trades_per_hour"`
	HardStopLoss     float64 `yaml:"hard_stop_loss"` // drawdown fraction that rejects everything
	MaxDailyLoss     float64 `yaml:"max_daily_loss"` // daily loss fraction
	MaxOpenPositions int     `yaml:"max_open_positions"`
	MinConfidence    float64 `yaml:"min_confidence"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	KillSwitch       bool    `yaml:"kill_switch"` // enables the operator halt/resume signals
}

// PromotionCriteria gates the PAPER → LIVE_LIMITED transition.
type PromotionCriteria struct {
	MinRuntimeMinutes int     `yaml:"min_runtime_minutes"`
	MinTradeCount     int     `yaml:"min_trade_count"`
	MinWinRate        float64 `yaml:"min_win_rate"`
	SkipAfterGoodRuns int     `yaml:"skip_after_consecutive_good_runs"`
}

// DemotionCriteria gates the LIVE_LIMITED → PAPER transition and the good-run
// accounting that feeds the fast-skip promotion path.
type DemotionCriteria struct {
	MinLiveMinutes    int     `yaml:"min_live_minutes"`
	MinWinRate        float64 `yaml:"min_win_rate_threshold"`
	RetrainingMinutes int     `yaml:"retraining_minutes"`
	GoodRunThreshold  float64 `yaml:"good_run_threshold"`
}

// PlatformConfig configures the live exchange adapter. Credentials come from
// the environment (.env supported) so they never live in the YAML file.
type PlatformConfig struct {
	BaseURL string `yaml:"base_url"`
	// DisableSafetyLock must be explicitly set to true before any live order
	// is placed. The zero value keeps the lock engaged.
	DisableSafetyLock bool `yaml:"disable_safety_lock"`
	OrdersPerMinute   int  `yaml:"orders_per_minute"`
	TimeoutSeconds    int  `yaml:"timeout_seconds"`

	// Not read from YAML.
	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
	UserID    string `yaml:"-"`
	AccountID string `yaml:"-"`
}

// StorageConfig controls the execution journal. An empty DSN disables it;
// ":memory:" keeps the audit trail for the process lifetime only.
type StorageConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present, applies environment
// overrides, fills defaults and validates. Configuration errors are fatal at
// startup by design — the loop never starts with a half-built config.
func Load(path string) (*Config, error) {
	// .env is optional; missing file is not an error
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// CycleInterval returns the loop sleep interval as a time.Duration.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Trading.IntervalSeconds) * time.Second
}

// ReportInterval returns the reporter cadence as a time.Duration.
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.Trading.ReportIntervalMinutes) * time.Minute
}

// Validate checks cross-field consistency. Live trading with incomplete
// credentials is a startup error, not something discovered mid-session.
func (c *Config) Validate() error {
	if c.Risk.CapitalCap <= 0 || c.Risk.CapitalCap > 1 {
		return fmt.Errorf("risk.capital_cap must be in (0,1], got %v", c.Risk.CapitalCap)
	}
	if c.Risk.MaxPosition <= 0 || c.Risk.MaxPosition > 1 {
		return fmt.Errorf("risk.max_position must be in (0,1], got %v", c.Risk.MaxPosition)
	}
	if c.Risk.HardStopLoss <= 0 || c.Risk.HardStopLoss > 1 {
		return fmt.Errorf("risk.hard_stop_loss must be in (0,1], got %v", c.Risk.HardStopLoss)
	}
	if c.Risk.MaxDailyLoss <= 0 || c.Risk.MaxDailyLoss > 1 {
		return fmt.Errorf("risk.max_daily_loss must be in (0,1], got %v", c.Risk.MaxDailyLoss)
	}
	if c.Promotion.MinWinRate < 0 || c.Promotion.MinWinRate > 1 {
		return fmt.Errorf("promotion.min_win_rate must be in [0,1], got %v", c.Promotion.MinWinRate)
	}
	if c.Demotion.GoodRunThreshold < c.Demotion.MinWinRate {
		return fmt.Errorf("demotion.good_run_threshold (%v) must be >= min_win_rate_threshold (%v)",
			c.Demotion.GoodRunThreshold, c.Demotion.MinWinRate)
	}
	if c.Trading.AllowLive && !c.Platform.HasCredentials() {
		return fmt.Errorf("trading.allow_live is set but platform credentials are incomplete; " +
			"set NDAX_API_KEY, NDAX_API_SECRET, NDAX_USER_ID and NDAX_ACCOUNT_ID")
	}
	return nil
}

// HasCredentials reports whether all four live API credentials are present.
func (p PlatformConfig) HasCredentials() bool {
	return p.APIKey != "" && p.APISecret != "" && p.UserID != "" && p.AccountID != ""
}

// SafetyLocked reports whether the platform safety lock is engaged.
func (p PlatformConfig) SafetyLocked() bool {
	return !p.DisableSafetyLock
}

// Timeout returns the live adapter HTTP timeout.
func (p PlatformConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// applyEnvOverrides pulls credentials and operational overrides from the
// environment. This is the only place in the repo that reads os.Getenv.
func applyEnvOverrides(cfg *Config) {
	cfg.Platform.APIKey = os.Getenv("NDAX_API_KEY")
	cfg.Platform.APISecret = os.Getenv("NDAX_API_SECRET")
	cfg.Platform.UserID = os.Getenv("NDAX_USER_ID")
	cfg.Platform.AccountID = os.Getenv("NDAX_ACCOUNT_ID")

	if v := os.Getenv("NDAX_BASE_URL"); v != "" {
		cfg.Platform.BaseURL = v
	}
	if v := os.Getenv("ALLOW_LIVE"); v == "true" {
		cfg.Trading.AllowLive = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills required values with the documented defaults.
func setDefaults(cfg *Config) {
	if cfg.Trading.Symbol == "" {
		cfg.Trading.Symbol = "BTC/CAD"
	}
	if cfg.Trading.IntervalSeconds <= 0 {
		cfg.Trading.IntervalSeconds = 60
	}
	if cfg.Trading.InitialBalance <= 0 {
		cfg.Trading.InitialBalance = 10000
	}
	if cfg.Trading.ReportIntervalMinutes <= 0 {
		cfg.Trading.ReportIntervalMinutes = 60
	}

	if cfg.Risk.CapitalCap == 0 {
		cfg.Risk.CapitalCap = 0.50
	}
	if cfg.Risk.MaxPosition == 0 {
		cfg.Risk.MaxPosition = 0.05
	}
	if cfg.Risk.MaxTradesPerHour == 0 {
		cfg.Risk.MaxTradesPerHour = 100
	}
	if cfg.Risk.HardStopLoss == 0 {
		cfg.Risk.HardStopLoss = 0.30
	}
	if cfg.Risk.MaxDailyLoss == 0 {
		cfg.Risk.MaxDailyLoss = 0.50
	}
	if cfg.Risk.MaxOpenPositions == 0 {
		cfg.Risk.MaxOpenPositions = 5
	}
	if cfg.Risk.MinConfidence == 0 {
		cfg.Risk.MinConfidence = 0.60
	}
	if cfg.Risk.StopLossPct == 0 {
		cfg.Risk.StopLossPct = 0.02
	}
	if cfg.Risk.TakeProfitPct == 0 {
		cfg.Risk.TakeProfitPct = 0.05
	}

	if cfg.Promotion.MinRuntimeMinutes == 0 {
		cfg.Promotion.MinRuntimeMinutes = 60
	}
	if cfg.Promotion.MinTradeCount == 0 {
		cfg.Promotion.MinTradeCount = 30
	}
	if cfg.Promotion.MinWinRate == 0 {
		cfg.Promotion.MinWinRate = 0.70
	}
	if cfg.Promotion.SkipAfterGoodRuns == 0 {
		cfg.Promotion.SkipAfterGoodRuns = 3
	}

	if cfg.Demotion.MinLiveMinutes == 0 {
		cfg.Demotion.MinLiveMinutes = 60
	}
	if cfg.Demotion.MinWinRate == 0 {
		cfg.Demotion.MinWinRate = 0.60
	}
	if cfg.Demotion.RetrainingMinutes == 0 {
		cfg.Demotion.RetrainingMinutes = 120
	}
	if cfg.Demotion.GoodRunThreshold == 0 {
		cfg.Demotion.GoodRunThreshold = 0.75
	}

	if cfg.Platform.BaseURL == "" {
		cfg.Platform.BaseURL = "https://api.ndax.io"
	}
	if cfg.Platform.OrdersPerMinute == 0 {
		cfg.Platform.OrdersPerMinute = 10
	}
	if cfg.Platform.TimeoutSeconds == 0 {
		cfg.Platform.TimeoutSeconds = 10
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stratforge/TradeLab/pkg/backtester"
	"github.com/stratforge/TradeLab/pkg/logging"
	"github.com/stratforge/TradeLab/pkg/strategy"
)

const dateLayout = "2006-01-02"

// Config is the top-level configuration for a run of the backtester or
// optimizer CLIs.
type Config struct {
	Database     Database           `yaml:"database"`
	Logging      logging.Config     `yaml:"logging"`
	Backtest     BacktestConfig     `yaml:"backtest"`
	Optimization OptimizationConfig `yaml:"optimization"`
}

// Database holds TimescaleDB connection settings. Environment variables
// override the file values so credentials stay out of checked-in configs.
type Database struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnString builds the lib/pq connection string.
func (d Database) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode)
}

// BacktestConfig describes one backtest request.
type BacktestConfig struct {
	UserID         string              `yaml:"user_id"`
	StrategyID     string              `yaml:"strategy_id"`
	Symbol         string              `yaml:"symbol"`
	StartDate      string              `yaml:"start_date"`
	EndDate        string              `yaml:"end_date"`
	Timeframe      string              `yaml:"timeframe"`
	InitialCapital float64             `yaml:"initial_capital"`
	Parameters     strategy.Parameters `yaml:"parameters"`
}

// OptimizationConfig adds the parameter ranges and pool settings.
type OptimizationConfig struct {
	RSIPeriod         backtester.ParameterRange `yaml:"rsi_period"`
	MACDFast          backtester.ParameterRange `yaml:"macd_fast"`
	MACDSlow          backtester.ParameterRange `yaml:"macd_slow"`
	BollingerPeriod   backtester.ParameterRange `yaml:"bollinger_period"`
	Workers           int                       `yaml:"workers"`
	RunTimeoutSeconds int                       `yaml:"run_timeout_seconds"`
}

// Load reads the YAML configuration file at the given path and applies
// environment variable overrides for database credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{Logging: logging.DefaultConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrideEnv(&c.Database.Host, "POSTGRES_HOST")
	overrideEnv(&c.Database.Port, "POSTGRES_PORT")
	overrideEnv(&c.Database.User, "POSTGRES_USER")
	overrideEnv(&c.Database.Password, "POSTGRES_PASSWORD")
	overrideEnv(&c.Database.Name, "POSTGRES_DB")
}

func overrideEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

// BacktestRequest converts the backtest section into an engine request.
func (c *Config) BacktestRequest() (backtester.BacktestRequest, error) {
	var req backtester.BacktestRequest

	start, err := time.Parse(dateLayout, c.Backtest.StartDate)
	if err != nil {
		return req, fmt.Errorf("invalid start_date %q: %w", c.Backtest.StartDate, err)
	}
	end, err := time.Parse(dateLayout, c.Backtest.EndDate)
	if err != nil {
		return req, fmt.Errorf("invalid end_date %q: %w", c.Backtest.EndDate, err)
	}

	params := c.Backtest.Parameters
	if params == (strategy.Parameters{}) {
		params = strategy.DefaultParameters()
	}

	timeframe := c.Backtest.Timeframe
	if timeframe == "" {
		timeframe = "1d"
	}

	return backtester.BacktestRequest{
		UserID:         c.Backtest.UserID,
		StrategyID:     c.Backtest.StrategyID,
		Symbol:         c.Backtest.Symbol,
		StartDate:      start,
		EndDate:        end,
		Timeframe:      timeframe,
		InitialCapital: c.Backtest.InitialCapital,
		Parameters:     params,
	}, nil
}

// OptimizationRequest converts the backtest and optimization sections into
// an engine request.
func (c *Config) OptimizationRequest() (backtester.OptimizationRequest, error) {
	base, err := c.BacktestRequest()
	if err != nil {
		return backtester.OptimizationRequest{}, err
	}

	return backtester.OptimizationRequest{
		BacktestRequest: base,
		RSIPeriod:       c.Optimization.RSIPeriod,
		MACDFast:        c.Optimization.MACDFast,
		MACDSlow:        c.Optimization.MACDSlow,
		BollingerPeriod: c.Optimization.BollingerPeriod,
		Workers:         c.Optimization.Workers,
		RunTimeout:      time.Duration(c.Optimization.RunTimeoutSeconds) * time.Second,
	}, nil
}

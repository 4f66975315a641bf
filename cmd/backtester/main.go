package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/stratforge/TradeLab/internal/config"
	"github.com/stratforge/TradeLab/internal/data"
	"github.com/stratforge/TradeLab/pkg/backtester"
	"github.com/stratforge/TradeLab/pkg/indicator"
	"github.com/stratforge/TradeLab/pkg/logging"
	"github.com/stratforge/TradeLab/pkg/strategy"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	// Command line flags
	var (
		configPath     = flag.String("config", "", "YAML config file (overrides the other flags when set)")
		symbolFlag     = flag.String("symbol", "AAPL", "Symbol to backtest")
		startDate      = flag.String("start", "2024-01-01", "Start date (YYYY-MM-DD)")
		endDate        = flag.String("end", "2024-12-31", "End date (YYYY-MM-DD)")
		initialCapital = flag.Float64("capital", 10000.0, "Initial capital")
		timeframe      = flag.String("timeframe", "1d", "Timeframe (1m, 5m, 15m, 1h, 1d)")
	)
	flag.Parse()

	// Get logging configuration from environment variables
	logConfig := logging.DefaultConfig()
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logConfig.Pretty = getEnvBool("LOG_PRETTY", true)
	logConfig.EnableFile = getEnvBool("LOG_TO_FILE", true)
	logConfig.LogDir = getEnv("LOG_DIR", "logs")
	logConfig.LogFileName = getEnv("LOG_FILE", "backtester.log")
	logging.Initialize(logConfig)

	logger := logging.GetLogger("main")

	if envErr != nil {
		logger.Warn().Err(envErr).Msg("Could not load .env file, using system environment variables")
	} else {
		logger.Debug().Msg("Successfully loaded .env file")
	}

	logger.Info().Msg("TradeLab Backtester")
	logger.Info().Msg("===================")

	// Build the request either from a config file or from flags.
	var req backtester.BacktestRequest
	connStr := connStringFromEnv()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		req, err = cfg.BacktestRequest()
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid backtest config")
		}
		connStr = cfg.Database.ConnString()
	} else {
		start, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			logger.Fatal().Err(err).Str("start_date", *startDate).Msg("Invalid start date")
		}
		end, err := time.Parse("2006-01-02", *endDate)
		if err != nil {
			logger.Fatal().Err(err).Str("end_date", *endDate).Msg("Invalid end date")
		}
		end = end.Add(24 * time.Hour) // include all data for the end date

		req = backtester.BacktestRequest{
			Symbol:         *symbolFlag,
			StartDate:      start,
			EndDate:        end,
			Timeframe:      *timeframe,
			InitialCapital: *initialCapital,
			Parameters:     strategy.DefaultParameters(),
		}
	}

	// Create data provider
	logger.Info().Msg("Connecting to database...")
	provider, err := data.NewTimescaleDBProvider(connStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create data provider")
	}
	defer provider.Close()

	engine := backtester.NewEngine(provider, indicator.NewCalculator())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("symbol", req.Symbol).
		Time("start_date", req.StartDate).
		Time("end_date", req.EndDate).
		Float64("initial_capital", req.InitialCapital).
		Str("timeframe", req.Timeframe).
		Msg("Running backtest")

	result, err := engine.RunBacktest(ctx, req)
	if err != nil {
		logger.Fatal().Err(err).Msg("Backtest failed")
	}

	logger.Info().Msg("\n" + result.Summary())
}

// connStringFromEnv builds the connection string the way the deployment
// environment provides it.
func connStringFromEnv() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", ""),
		getEnv("POSTGRES_DB", "trading_data"),
	)
}

// Helper function to get environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get boolean environment variable with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/stratforge/TradeLab/internal/config"
	"github.com/stratforge/TradeLab/internal/data"
	"github.com/stratforge/TradeLab/pkg/backtester"
	"github.com/stratforge/TradeLab/pkg/indicator"
	"github.com/stratforge/TradeLab/pkg/logging"
)

func main() {
	envErr := godotenv.Load()

	var (
		configPath = flag.String("config", "optimizer.yaml", "YAML config file with the base request and parameter ranges")
		topN       = flag.Int("top", 10, "Number of top-ranked results to print")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logConfig.Pretty = getEnvBool("LOG_PRETTY", true)
	logConfig.EnableFile = getEnvBool("LOG_TO_FILE", true)
	logConfig.LogDir = getEnv("LOG_DIR", "logs")
	logConfig.LogFileName = getEnv("LOG_FILE", "optimizer.log")
	logging.Initialize(logConfig)

	logger := logging.GetLogger("main")

	if envErr != nil {
		logger.Warn().Err(envErr).Msg("Could not load .env file, using system environment variables")
	}

	logger.Info().Msg("TradeLab Optimizer")
	logger.Info().Msg("==================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
	}

	req, err := cfg.OptimizationRequest()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid optimization config")
	}

	logger.Info().Msg("Connecting to database...")
	provider, err := data.NewTimescaleDBProvider(cfg.Database.ConnString())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create data provider")
	}
	defer provider.Close()

	engine := backtester.NewEngine(provider, indicator.NewCalculator())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := engine.RunOptimization(ctx, req)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("Optimization failed")
	}
	if err != nil {
		logger.Warn().Err(err).Int("completed", len(results)).Msg("Optimization cancelled, reporting completed runs")
	}

	if len(results) == 0 {
		logger.Info().Msg("No combinations completed")
		return
	}

	limit := *topN
	if limit > len(results) {
		limit = len(results)
	}
	for rank, result := range results[:limit] {
		logger.Info().
			Int("rank", rank+1).
			Float64("sharpe", result.Metrics.SharpeRatio).
			Float64("total_return_pct", result.Metrics.TotalReturnPct).
			Float64("max_drawdown_pct", result.Metrics.MaxDrawdownPct).
			Int("trades", result.Metrics.TotalTrades).
			Int("rsi_period", result.Parameters.RSIPeriod).
			Int("macd_fast", result.Parameters.MACDFast).
			Int("macd_slow", result.Parameters.MACDSlow).
			Int("bollinger_period", result.Parameters.BollingerPeriod).
			Msg("Ranked result")
	}

	logger.Info().Msg("\n" + results[0].Summary())
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

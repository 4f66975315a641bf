package backtester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stratforge/TradeLab/pkg/feed"
	"github.com/stratforge/TradeLab/pkg/indicator"
	"github.com/stratforge/TradeLab/pkg/logging"
	"github.com/stratforge/TradeLab/pkg/strategy"
)

// ErrInsufficientData is returned when fewer than MinimumBars historical
// bars are available for the requested range.
var ErrInsufficientData = errors.New("insufficient historical data")

// BacktestRequest describes one backtest run. UserID and StrategyID are
// opaque to the engine and copied onto the result.
type BacktestRequest struct {
	UserID     string
	StrategyID string
	Symbol     string

	StartDate      time.Time
	EndDate        time.Time
	Timeframe      string
	InitialCapital float64

	Parameters strategy.Parameters
}

// Engine is the single-run entry point. It fetches bars once per request,
// validates history length, and drives the simulator and metrics calculator.
type Engine struct {
	provider   feed.HistoricalDataProvider
	indicators indicator.Provider
	allocation float64
	logger     zerolog.Logger
}

// NewEngine creates an engine over the given data and indicator providers.
func NewEngine(provider feed.HistoricalDataProvider, indicators indicator.Provider) *Engine {
	return &Engine{
		provider:   provider,
		indicators: indicators,
		allocation: DefaultAllocationFraction,
		logger:     logging.GetLogger("backtester"),
	}
}

// SetAllocationFraction overrides the fraction of cash committed per entry.
func (e *Engine) SetAllocationFraction(fraction float64) {
	if fraction > 0 && fraction <= 1 {
		e.allocation = fraction
	}
}

// RunBacktest executes one backtest. Requests with fewer than MinimumBars of
// history are rejected before any simulation step executes. A mid-run
// failure (indicator provider error, cancellation) produces a Failed result
// alongside the error.
func (e *Engine) RunBacktest(ctx context.Context, req BacktestRequest) (*Result, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	bars, err := e.provider.GetBars(ctx, req.Symbol, req.Timeframe, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", req.Symbol, err)
	}
	if len(bars) < MinimumBars {
		return nil, fmt.Errorf("%w: got %d bars for %s, need at least %d",
			ErrInsufficientData, len(bars), req.Symbol, MinimumBars)
	}

	return e.runPrefetched(ctx, req, bars)
}

// runPrefetched runs the simulation over an already-fetched bar sequence.
// The optimizer uses it to fan one fetch out across combinations.
func (e *Engine) runPrefetched(ctx context.Context, req BacktestRequest, bars []strategy.BarData) (*Result, error) {
	params := req.Parameters.Normalize()

	result := &Result{
		UserID:          req.UserID,
		StrategyID:      req.StrategyID,
		Symbol:          req.Symbol,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		StartingCapital: req.InitialCapital,
		Parameters:      params,
	}

	sim := NewSimulator(params, e.indicators, req.InitialCapital, e.allocation)
	outcome, err := sim.Run(ctx, bars)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		e.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("Backtest run failed")
		return result, err
	}

	result.Status = StatusCompleted
	result.Trades = outcome.Trades
	result.FinalPortfolio = outcome.Portfolio
	result.EndingCapital = outcome.Portfolio.Equity
	result.Metrics = ComputeMetrics(outcome.Trades, outcome.Portfolio, req.InitialCapital, req.StartDate, req.EndDate)

	e.logger.Info().
		Str("symbol", req.Symbol).
		Int("trades", result.Metrics.TotalTrades).
		Float64("total_return_pct", result.Metrics.TotalReturnPct).
		Float64("sharpe", result.Metrics.SharpeRatio).
		Msg("Backtest completed")

	return result, nil
}

func (e *Engine) validateRequest(req BacktestRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("request symbol must not be empty")
	}
	if req.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %f", req.InitialCapital)
	}
	if req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("end date %s precedes start date %s",
			req.EndDate.Format("2006-01-02"), req.StartDate.Format("2006-01-02"))
	}
	if err := req.Parameters.Validate(); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

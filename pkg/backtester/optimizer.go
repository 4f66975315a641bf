package backtester

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stratforge/TradeLab/pkg/strategy"
)

// DefaultRunTimeout bounds one parameter combination so a pathological run
// cannot starve the batch.
const DefaultRunTimeout = time.Minute

// progressLogInterval is how many finished combinations pass between
// optimizer progress log lines.
const progressLogInterval = 25

// ParameterRange is an inclusive (min, max, step) sweep over one integer
// parameter. A step of 0 or less means a single value at Min.
type ParameterRange struct {
	Min  int `json:"min" yaml:"min"`
	Max  int `json:"max" yaml:"max"`
	Step int `json:"step" yaml:"step"`
}

// Values expands the range into its concrete values.
func (r ParameterRange) Values() []int {
	step := r.Step
	if step <= 0 {
		step = 1
	}
	var out []int
	for v := r.Min; v <= r.Max; v += step {
		out = append(out, v)
	}
	return out
}

// OptimizationRequest sweeps the four tunable periods over their ranges; the
// remaining parameters are held at the base request's values for every
// combination.
type OptimizationRequest struct {
	BacktestRequest

	RSIPeriod       ParameterRange
	MACDFast        ParameterRange
	MACDSlow        ParameterRange
	BollingerPeriod ParameterRange

	// Workers bounds the concurrent backtests; 0 means 2 × GOMAXPROCS.
	Workers int
	// RunTimeout bounds one combination; 0 means DefaultRunTimeout.
	RunTimeout time.Duration
}

// RunOptimization expands the parameter ranges into concrete combinations,
// runs one independent backtest per combination on a bounded worker pool,
// and returns the completed results ranked by Sharpe ratio descending with
// ties keeping combination order.
//
// Bars are fetched once and fanned out read-only. A combination's failure is
// logged and excluded; it never aborts siblings. On batch cancellation the
// results completed so far are returned together with the context error.
func (e *Engine) RunOptimization(ctx context.Context, req OptimizationRequest) ([]*Result, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("request symbol must not be empty")
	}
	if req.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %f", req.InitialCapital)
	}

	bars, err := e.provider.GetBars(ctx, req.Symbol, req.Timeframe, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", req.Symbol, err)
	}
	if len(bars) < MinimumBars {
		return nil, fmt.Errorf("%w: got %d bars for %s, need at least %d",
			ErrInsufficientData, len(bars), req.Symbol, MinimumBars)
	}

	combinations := expandCombinations(req)
	if len(combinations) == 0 {
		e.logger.Info().Msg("No feasible parameter combinations, nothing to run")
		return nil, nil
	}

	workers := req.Workers
	if workers <= 0 {
		workers = 2 * runtime.GOMAXPROCS(0)
	}
	runTimeout := req.RunTimeout
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	e.logger.Info().
		Int("combinations", len(combinations)).
		Int("workers", workers).
		Dur("run_timeout", runTimeout).
		Msg("Starting parameter optimization")

	// Each slot is written by exactly one goroutine; combination order is
	// preserved so the stable sort below can break Sharpe ties by it.
	results := make([]*Result, len(combinations))
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var finished atomic.Int64

	for i, params := range combinations {
		if ctx.Err() != nil {
			break // stop launching; in-flight runs drain below
		}

		wg.Add(1)
		go func(idx int, params strategy.Parameters) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			comboReq := req.BacktestRequest
			comboReq.Parameters = params

			// Each run owns its portfolio and trade log; only the bar
			// slice is shared, and it is read-only.
			result, err := e.runPrefetched(runCtx, comboReq, bars)

			if n := finished.Add(1); n%progressLogInterval == 0 {
				e.logger.Info().
					Int64("finished", n).
					Int("total", len(combinations)).
					Msg("Optimization progress")
			}

			if err != nil {
				e.logger.Warn().
					Err(err).
					Int("combination", idx).
					Int("rsi_period", params.RSIPeriod).
					Int("macd_fast", params.MACDFast).
					Int("macd_slow", params.MACDSlow).
					Int("bollinger_period", params.BollingerPeriod).
					Msg("Combination failed, excluding from results")
				return
			}
			results[idx] = result
		}(i, params)
	}

	wg.Wait()

	completed := make([]*Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			completed = append(completed, r)
		}
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].Metrics.SharpeRatio > completed[j].Metrics.SharpeRatio
	})

	failed := len(combinations) - len(completed)
	e.logger.Info().
		Int("completed", len(completed)).
		Int("failed", failed).
		Msg("Parameter optimization finished")

	if err := ctx.Err(); err != nil {
		// Hand back what finished before cancellation.
		return completed, err
	}
	return completed, nil
}

// expandCombinations Cartesian-expands the four ranges, dropping infeasible
// combinations (MACD slow ≤ fast) silently. Each retained combination gets a
// lookback floor covering its largest period.
func expandCombinations(req OptimizationRequest) []strategy.Parameters {
	base := req.Parameters
	if base == (strategy.Parameters{}) {
		base = strategy.DefaultParameters()
	}

	var combinations []strategy.Parameters
	for _, rsi := range req.RSIPeriod.Values() {
		for _, fast := range req.MACDFast.Values() {
			for _, slow := range req.MACDSlow.Values() {
				if slow <= fast {
					continue
				}
				for _, boll := range req.BollingerPeriod.Values() {
					params := base
					params.RSIPeriod = rsi
					params.MACDFast = fast
					params.MACDSlow = slow
					params.BollingerPeriod = boll
					params.LookbackFloor = max(rsi, slow, boll)
					combinations = append(combinations, params)
				}
			}
		}
	}
	return combinations
}

package backtester

import (
	"math"
	"time"

	"github.com/stratforge/TradeLab/pkg/strategy"
)

// AnnualizationPeriods is the assumed number of trading periods per year
// used to annualize the Sharpe ratio.
const AnnualizationPeriods = 252

// daysPerYear is used to annualize returns over a calendar date range.
const daysPerYear = 365.0

// Metrics contains the derived performance statistics of one run. All fields
// are pure functions of the trade log and the final portfolio snapshot.
type Metrics struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`

	// AnnualizedReturnPct is nil when the date range spans zero days.
	AnnualizedReturnPct *float64 `json:"annualized_return_pct,omitempty"`

	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`
	ProfitFactor float64 `json:"profit_factor"`
}

// ComputeMetrics derives the performance statistics for one completed run.
// Degenerate inputs (no trades, one trade, zero volatility, zero-length
// range) produce zero or unset values, never an error.
func ComputeMetrics(trades []strategy.TradeEvent, snapshot PortfolioSnapshot, startingCapital float64, start, end time.Time) Metrics {
	m := Metrics{
		TotalTrades:    len(trades),
		MaxDrawdown:    snapshot.MaxDrawdown,
		MaxDrawdownPct: snapshot.MaxDrawdown * 100,
	}

	endingCapital := snapshot.Equity
	m.TotalReturn = endingCapital - startingCapital
	if startingCapital > 0 {
		m.TotalReturnPct = m.TotalReturn / startingCapital * 100
	}

	var totalWins, totalLosses float64
	closedReturns := make([]float64, 0, len(trades))
	for _, trade := range trades {
		if trade.Side != strategy.SignalSell {
			continue // opening trades have no realized P&L
		}
		closedReturns = append(closedReturns, trade.RealizedPL/startingCapital)

		pl := trade.RealizedPL
		switch {
		case pl > 0:
			m.WinningTrades++
			totalWins += pl
			if pl > m.LargestWin {
				m.LargestWin = pl
			}
		case pl < 0:
			m.LosingTrades++
			totalLosses += pl
			if pl < m.LargestLoss {
				m.LargestLoss = pl
			}
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgWin = totalWins / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = totalLosses / float64(m.LosingTrades)
	}
	if totalLosses != 0 {
		m.ProfitFactor = totalWins / (-totalLosses)
	}

	m.SharpeRatio = sharpeRatio(closedReturns)

	if days := end.Sub(start).Hours() / 24; days > 0 && startingCapital > 0 && endingCapital > 0 {
		annualized := (math.Pow(endingCapital/startingCapital, daysPerYear/days) - 1) * 100
		m.AnnualizedReturnPct = &annualized
	}

	return m
}

// sharpeRatio annualizes mean/σ of the per-trade return series. It needs
// more than one completed trade and non-zero volatility; anything less
// yields 0, never NaN.
func sharpeRatio(returns []float64) float64 {
	if len(returns) <= 1 {
		return 0
	}

	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	sumSquares := 0.0
	for _, r := range returns {
		diff := r - mean
		sumSquares += diff * diff
	}
	// Population standard deviation.
	stdDev := math.Sqrt(sumSquares / float64(len(returns)))
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(AnnualizationPeriods)
}

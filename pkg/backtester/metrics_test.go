package backtester

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratforge/TradeLab/pkg/strategy"
)

func closedTrade(id int, pl float64) strategy.TradeEvent {
	return strategy.TradeEvent{
		ID:         "t",
		Timestamp:  testStart.AddDate(0, 0, id),
		Side:       strategy.SignalSell,
		Quantity:   10,
		Price:      100,
		RealizedPL: pl,
	}
}

func openingTrade(id int) strategy.TradeEvent {
	return strategy.TradeEvent{
		ID:        "t",
		Timestamp: testStart.AddDate(0, 0, id),
		Side:      strategy.SignalBuy,
		Quantity:  10,
		Price:     100,
	}
}

func TestComputeMetrics_NoTrades(t *testing.T) {
	snapshot := PortfolioSnapshot{Equity: 10000}
	m := ComputeMetrics(nil, snapshot, 10000, testStart, testStart.AddDate(0, 0, 30))

	assert.Equal(t, 0, m.TotalTrades)
	assert.Equal(t, 0.0, m.WinRate, "no trades must not divide by zero")
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.TotalReturn)
}

func TestComputeMetrics_SingleClosedTradeSharpeZero(t *testing.T) {
	trades := []strategy.TradeEvent{openingTrade(0), closedTrade(1, 500)}
	snapshot := PortfolioSnapshot{Equity: 10500}
	m := ComputeMetrics(trades, snapshot, 10000, testStart, testStart.AddDate(0, 0, 30))

	assert.Equal(t, 0.0, m.SharpeRatio, "one completed trade has no volatility estimate")
	assert.False(t, math.IsNaN(m.SharpeRatio))
}

func TestComputeMetrics_ZeroStdDevSharpeZero(t *testing.T) {
	// Two identical closed trades: population σ = 0.
	trades := []strategy.TradeEvent{closedTrade(0, 100), closedTrade(1, 100)}
	snapshot := PortfolioSnapshot{Equity: 10200}
	m := ComputeMetrics(trades, snapshot, 10000, testStart, testStart.AddDate(0, 0, 30))

	assert.Equal(t, 0.0, m.SharpeRatio)
}

func TestComputeMetrics_SharpeAnnualized(t *testing.T) {
	trades := []strategy.TradeEvent{closedTrade(0, 100), closedTrade(1, 300)}
	snapshot := PortfolioSnapshot{Equity: 10400}
	m := ComputeMetrics(trades, snapshot, 10000, testStart, testStart.AddDate(0, 0, 30))

	// Returns 0.01 and 0.03: mean 0.02, population σ 0.01.
	expected := 0.02 / 0.01 * math.Sqrt(252)
	assert.InDelta(t, expected, m.SharpeRatio, 1e-9)
}

func TestComputeMetrics_ZeroLengthRangeNoAnnualizedReturn(t *testing.T) {
	snapshot := PortfolioSnapshot{Equity: 11000}
	m := ComputeMetrics(nil, snapshot, 10000, testStart, testStart)

	assert.Nil(t, m.AnnualizedReturnPct, "start = end leaves annualized return unset")
}

func TestComputeMetrics_AnnualizedReturnOneYear(t *testing.T) {
	snapshot := PortfolioSnapshot{Equity: 11000}
	m := ComputeMetrics(nil, snapshot, 10000, testStart, testStart.AddDate(0, 0, 365))

	require.NotNil(t, m.AnnualizedReturnPct)
	assert.InDelta(t, 10.0, *m.AnnualizedReturnPct, 1e-9)
}

func TestComputeMetrics_AnnualizedReturnCompounds(t *testing.T) {
	// 10% over half a year annualizes to (1.1)^2 − 1 = 21%.
	snapshot := PortfolioSnapshot{Equity: 11000}
	start := testStart
	end := start.Add(time.Duration(365.0/2.0*24.0) * time.Hour)
	m := ComputeMetrics(nil, snapshot, 10000, start, end)

	require.NotNil(t, m.AnnualizedReturnPct)
	assert.InDelta(t, 21.0, *m.AnnualizedReturnPct, 1e-6)
}

func TestComputeMetrics_TradeCounts(t *testing.T) {
	trades := []strategy.TradeEvent{
		openingTrade(0),
		closedTrade(1, 500),
		openingTrade(2),
		closedTrade(3, -200),
		openingTrade(4),
		closedTrade(5, 0), // zero P&L counts toward neither bucket
	}
	snapshot := PortfolioSnapshot{Equity: 10300, MaxDrawdown: 0.04}
	m := ComputeMetrics(trades, snapshot, 10000, testStart, testStart.AddDate(0, 0, 30))

	assert.Equal(t, 6, m.TotalTrades)
	assert.Equal(t, 1, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.LessOrEqual(t, m.WinningTrades+m.LosingTrades, m.TotalTrades)
	assert.InDelta(t, 1.0/6.0*100, m.WinRate, 1e-9)

	assert.Equal(t, 500.0, m.LargestWin)
	assert.Equal(t, -200.0, m.LargestLoss)
	assert.InDelta(t, 500.0/200.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 4.0, m.MaxDrawdownPct, 1e-9)
}

func TestComputeMetrics_ReturnInvariant(t *testing.T) {
	snapshot := PortfolioSnapshot{Equity: 10742.5}
	m := ComputeMetrics(nil, snapshot, 10000, testStart, testStart.AddDate(0, 0, 30))

	// endingCapital = startingCapital + totalReturn
	assert.InDelta(t, snapshot.Equity, 10000+m.TotalReturn, 1e-9)
	assert.InDelta(t, 7.425, m.TotalReturnPct, 1e-9)
}

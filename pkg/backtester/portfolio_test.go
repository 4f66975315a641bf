package backtester

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratforge/TradeLab/pkg/strategy"
)

func buySignal(bar strategy.BarData) *strategy.Signal {
	return &strategy.Signal{
		Direction: strategy.SignalBuy,
		Strength:  1,
		Price:     bar.Close,
		Timestamp: bar.Timestamp,
	}
}

func sellSignal(bar strategy.BarData) *strategy.Signal {
	return &strategy.Signal{
		Direction: strategy.SignalSell,
		Strength:  1,
		Price:     bar.Close,
		Timestamp: bar.Timestamp,
	}
}

func TestPortfolio_OpenPosition(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bar := risingBars(1, 100)[0]

	trade := p.ApplySignal(buySignal(bar), bar)
	require.NotNil(t, trade)

	// quantity = (10000 × 0.95) / 100 = 95; cash buffer of 5% remains.
	assert.InDelta(t, 95.0, trade.Quantity, 1e-9)
	assert.Equal(t, strategy.SignalBuy, trade.Side)
	assert.Equal(t, 0.0, trade.RealizedPL, "opening trades carry no P&L")
	assert.InDelta(t, 500.0, p.Cash(), 1e-9)
	assert.GreaterOrEqual(t, p.Cash(), 0.0, "cash never goes negative under the sizing rule")
	assert.InDelta(t, 95.0, p.Position(), 1e-9)
}

func TestPortfolio_CloseComputesPL(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bars := risingBars(2, 100) // closes 100, 101

	require.NotNil(t, p.ApplySignal(buySignal(bars[0]), bars[0]))
	trade := p.ApplySignal(sellSignal(bars[1]), bars[1])
	require.NotNil(t, trade)

	// P&L = 95 × (101 − 100)
	assert.InDelta(t, 95.0, trade.RealizedPL, 1e-9)
	assert.Equal(t, 0.0, p.Position())
	assert.InDelta(t, 500.0+95.0*101.0, p.Cash(), 1e-9)
}

func TestPortfolio_IgnoresRedundantSignals(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bars := risingBars(3, 100)

	assert.Nil(t, p.ApplySignal(sellSignal(bars[0]), bars[0]), "sell while flat is ignored")

	require.NotNil(t, p.ApplySignal(buySignal(bars[0]), bars[0]))
	assert.Nil(t, p.ApplySignal(buySignal(bars[1]), bars[1]), "no pyramiding")
	assert.Len(t, p.Trades(), 1)
}

// At every point in the trade log, opens minus closes is 0 or 1.
func TestPortfolio_SinglePositionInvariant(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bars := risingBars(6, 100)

	for i, bar := range bars {
		if i%2 == 0 {
			p.ApplySignal(buySignal(bar), bar)
		} else {
			p.ApplySignal(sellSignal(bar), bar)
		}
		assert.GreaterOrEqual(t, p.Cash(), 0.0)
	}

	open := 0
	for _, trade := range p.Trades() {
		if trade.Side == strategy.SignalBuy {
			open++
		} else {
			open--
		}
		assert.Contains(t, []int{0, 1}, open)
	}
}

func TestPortfolio_SkipsMismatchedTimestamp(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bar := risingBars(1, 100)[0]

	sig := buySignal(bar)
	sig.Timestamp = bar.Timestamp.Add(time.Hour)

	assert.Nil(t, p.ApplySignal(sig, bar), "signal with no matching bar is skipped")
	assert.Empty(t, p.Trades())
}

func TestPortfolio_SkipsZeroPrice(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bar := risingBars(1, 100)[0]
	bar.Close = 0

	sig := buySignal(bar)
	sig.Price = 0

	assert.Nil(t, p.ApplySignal(sig, bar))
	assert.Equal(t, 10000.0, p.Cash())
}

func TestPortfolio_DrawdownTracking(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bar := risingBars(1, 100)[0]
	require.NotNil(t, p.ApplySignal(buySignal(bar), bar))

	p.MarkToMarket(100)
	assert.Equal(t, 0.0, p.MaxDrawdown())

	// Price falls 10%: equity = 500 + 95×90 = 9050, peak 10000.
	p.MarkToMarket(90)
	assert.InDelta(t, 0.095, p.MaxDrawdown(), 1e-9)

	// Recovery must not shrink the running maximum.
	p.MarkToMarket(100)
	assert.InDelta(t, 0.095, p.MaxDrawdown(), 1e-9)

	// A deeper trough widens it.
	p.MarkToMarket(80)
	assert.InDelta(t, (10000.0-(500.0+95.0*80.0))/10000.0, p.MaxDrawdown(), 1e-9)
}

// Max drawdown only ever grows within a run.
func TestPortfolio_DrawdownMonotonic(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bar := risingBars(1, 100)[0]
	require.NotNil(t, p.ApplySignal(buySignal(bar), bar))

	closes := []float64{100, 95, 98, 90, 102, 88, 110, 85}
	previous := 0.0
	for _, close := range closes {
		p.MarkToMarket(close)
		assert.GreaterOrEqual(t, p.MaxDrawdown(), previous)
		previous = p.MaxDrawdown()
	}
}

func TestPortfolio_MarkToMarketSkipsBadClose(t *testing.T) {
	p := NewPortfolio(10000, 0)
	p.MarkToMarket(100)
	p.MarkToMarket(0) // skipped, previous mark kept
	assert.Equal(t, 10000.0, p.Snapshot().Equity)
}

func TestPortfolio_SequentialTradeIDs(t *testing.T) {
	p := NewPortfolio(10000, 0)
	bars := risingBars(2, 100)

	first := p.ApplySignal(buySignal(bars[0]), bars[0])
	second := p.ApplySignal(sellSignal(bars[1]), bars[1])
	require.NotNil(t, first)
	require.NotNil(t, second)

	assert.Equal(t, "TRD-000001", first.ID)
	assert.Equal(t, "TRD-000002", second.ID)
}

func TestPortfolio_AllocationOverride(t *testing.T) {
	p := NewPortfolio(10000, 0.5)
	bar := risingBars(1, 100)[0]

	trade := p.ApplySignal(buySignal(bar), bar)
	require.NotNil(t, trade)
	assert.InDelta(t, 50.0, trade.Quantity, 1e-9)
}

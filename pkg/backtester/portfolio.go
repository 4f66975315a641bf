package backtester

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stratforge/TradeLab/pkg/logging"
	"github.com/stratforge/TradeLab/pkg/strategy"
)

// DefaultAllocationFraction is the fraction of cash committed when opening a
// position; the remainder is a buffer against fees and slippage. Overridable
// per engine, 0.95 in production.
const DefaultAllocationFraction = 0.95

// Portfolio tracks cash, the single long-only position slot, and drawdown
// for one simulation run. It is owned by exactly one run and never shared.
type Portfolio struct {
	cash        float64
	initialCash float64
	position    float64 // quantity held; 0 when flat, never negative
	entryPrice  float64 // average entry price of the open position
	allocation  float64

	equity      float64
	peakEquity  float64
	maxDrawdown float64 // fraction of peak, non-decreasing within a run

	trades   []strategy.TradeEvent
	tradeSeq int
	logger   zerolog.Logger
}

// PortfolioSnapshot is the immutable final state handed to the metrics
// calculator and attached to the result for audit.
type PortfolioSnapshot struct {
	Cash        float64 `json:"cash"`
	Position    float64 `json:"position"`
	EntryPrice  float64 `json:"entry_price"`
	Equity      float64 `json:"equity"`
	PeakEquity  float64 `json:"peak_equity"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// NewPortfolio creates a portfolio at the given initial capital. allocation
// is the fraction of cash committed per entry; pass 0 for the default.
func NewPortfolio(initialCapital, allocation float64) *Portfolio {
	if allocation <= 0 || allocation > 1 {
		allocation = DefaultAllocationFraction
	}
	return &Portfolio{
		cash:        initialCapital,
		initialCash: initialCapital,
		allocation:  allocation,
		equity:      initialCapital,
		peakEquity:  initialCapital,
		trades:      make([]strategy.TradeEvent, 0),
		logger:      logging.GetLogger("portfolio"),
	}
}

// ApplySignal executes the position state machine for one signal against the
// bar that produced it. Returns the resulting trade event, or nil when the
// signal is ignored (buy while open, sell while flat, bad data).
func (p *Portfolio) ApplySignal(sig *strategy.Signal, bar strategy.BarData) *strategy.TradeEvent {
	// Defensive join: a signal must refer to the bar it is executed against.
	// A mismatch indicates a data inconsistency upstream, not a fatal error.
	if !sig.Timestamp.Equal(bar.Timestamp) {
		p.logger.Warn().
			Time("signal_ts", sig.Timestamp).
			Time("bar_ts", bar.Timestamp).
			Msg("Signal timestamp has no matching bar, skipping")
		return nil
	}
	if bar.Close <= 0 {
		p.logger.Warn().
			Time("bar_ts", bar.Timestamp).
			Float64("close", bar.Close).
			Msg("Non-positive close price, skipping signal")
		return nil
	}

	switch sig.Direction {
	case strategy.SignalBuy:
		if p.position > 0 {
			return nil // already open; no pyramiding
		}
		quantity := (p.cash * p.allocation) / bar.Close
		if quantity <= 0 {
			return nil
		}
		p.cash -= quantity * bar.Close
		p.position = quantity
		p.entryPrice = bar.Close
		return p.recordTrade(strategy.SignalBuy, quantity, bar, 0)

	case strategy.SignalSell:
		if p.position == 0 {
			return nil // flat; no shorting
		}
		quantity := p.position
		realized := quantity * (bar.Close - p.entryPrice)
		p.cash += quantity * bar.Close
		p.position = 0
		p.entryPrice = 0
		return p.recordTrade(strategy.SignalSell, quantity, bar, realized)
	}
	return nil
}

// MarkToMarket recomputes equity at the bar close and updates the running
// peak and maximum drawdown. Runs on every bar, not only trade bars, since
// drawdown can widen purely from price movement against an open position.
func (p *Portfolio) MarkToMarket(close float64) {
	if close <= 0 {
		return // bad bar; keep the previous mark
	}
	p.equity = p.cash + p.position*close

	if p.equity > p.peakEquity {
		p.peakEquity = p.equity
		return
	}
	drawdown := (p.peakEquity - p.equity) / p.peakEquity
	if drawdown > p.maxDrawdown {
		p.maxDrawdown = drawdown
	}
}

func (p *Portfolio) recordTrade(side strategy.SignalDirection, quantity float64, bar strategy.BarData, realized float64) *strategy.TradeEvent {
	p.tradeSeq++
	trade := strategy.TradeEvent{
		// Sequential per-run IDs keep the trade log byte-identical across
		// reruns of the same inputs.
		ID:         fmt.Sprintf("TRD-%06d", p.tradeSeq),
		Timestamp:  bar.Timestamp,
		Side:       side,
		Quantity:   quantity,
		Price:      bar.Close,
		RealizedPL: realized,
	}
	p.trades = append(p.trades, trade)
	return &trade
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	return p.cash
}

// Position returns the current position size.
func (p *Portfolio) Position() float64 {
	return p.position
}

// MaxDrawdown returns the running maximum drawdown as a fraction of peak.
func (p *Portfolio) MaxDrawdown() float64 {
	return p.maxDrawdown
}

// Trades returns the trade log in execution order.
func (p *Portfolio) Trades() []strategy.TradeEvent {
	return p.trades
}

// Snapshot captures the final portfolio state.
func (p *Portfolio) Snapshot() PortfolioSnapshot {
	return PortfolioSnapshot{
		Cash:        p.cash,
		Position:    p.position,
		EntryPrice:  p.entryPrice,
		Equity:      p.equity,
		PeakEquity:  p.peakEquity,
		MaxDrawdown: p.maxDrawdown,
	}
}

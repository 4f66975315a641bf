package backtester

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stratforge/TradeLab/pkg/indicator"
	"github.com/stratforge/TradeLab/pkg/logging"
	"github.com/stratforge/TradeLab/pkg/strategy"
)

// MinimumBars is the minimum history length for a run. Callers reject
// shorter sequences before the simulator is invoked; together with the
// lookback floor it guarantees indicator warm-up.
const MinimumBars = 50

// SimulationOutcome is the simulator's terminal output: the trade log and
// the final portfolio state.
type SimulationOutcome struct {
	Trades    []strategy.TradeEvent
	Portfolio PortfolioSnapshot
}

// Simulator replays one bar sequence through the signal generator and the
// portfolio state machine. One simulator serves one run; the optimizer
// constructs a fresh one per parameter combination.
type Simulator struct {
	params     strategy.Parameters
	indicators indicator.Provider
	portfolio  *Portfolio
	logger     zerolog.Logger
}

// NewSimulator creates a simulator for one run.
func NewSimulator(params strategy.Parameters, indicators indicator.Provider, initialCapital, allocation float64) *Simulator {
	return &Simulator{
		params:     params,
		indicators: indicators,
		portfolio:  NewPortfolio(initialCapital, allocation),
		logger:     logging.GetLogger("simulator"),
	}
}

// Run walks the bars strictly in order, evaluating signals only once the
// warm-up window has passed and marking the portfolio to market on every
// bar. An indicator-provider failure fails the run; cancellation is observed
// before each bar.
func (s *Simulator) Run(ctx context.Context, bars []strategy.BarData) (*SimulationOutcome, error) {
	warmup := s.params.LookbackFloor
	if warmup < MinimumBars {
		warmup = MinimumBars
	}

	closes := make([]float64, 0, len(bars))
	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		closes = append(closes, bar.Close)

		// Bars inside the warm-up window are skipped, not padded with
		// default indicator values.
		if i >= warmup {
			values, err := s.evaluateIndicators(closes)
			if err != nil {
				return nil, fmt.Errorf("indicator evaluation at bar %d (%s): %w",
					i, bar.Timestamp.Format(time.RFC3339), err)
			}

			if sig := strategy.GenerateSignal(bar, values, s.params); sig != nil {
				if trade := s.portfolio.ApplySignal(sig, bar); trade != nil {
					s.logger.Debug().
						Str("trade_id", trade.ID).
						Str("side", string(trade.Side)).
						Float64("quantity", trade.Quantity).
						Float64("price", trade.Price).
						Float64("realized_pl", trade.RealizedPL).
						Float64("strength", sig.Strength).
						Msg("Trade executed")
				}
			}
		}

		s.portfolio.MarkToMarket(bar.Close)
	}

	return &SimulationOutcome{
		Trades:    s.portfolio.Trades(),
		Portfolio: s.portfolio.Snapshot(),
	}, nil
}

// evaluateIndicators computes the per-bar indicator values over the closes
// seen so far. The window ends at the current bar, so no signal can see a
// future close.
func (s *Simulator) evaluateIndicators(closes []float64) (strategy.IndicatorValues, error) {
	rsi, err := s.indicators.RSI(closes, s.params.RSIPeriod)
	if err != nil {
		return strategy.IndicatorValues{}, err
	}

	macd, err := s.indicators.MACD(closes, s.params.MACDFast, s.params.MACDSlow, s.params.MACDSignal)
	if err != nil {
		return strategy.IndicatorValues{}, err
	}

	bands, err := s.indicators.Bollinger(closes, s.params.BollingerPeriod, s.params.BollingerStdDev)
	if err != nil {
		return strategy.IndicatorValues{}, err
	}

	return strategy.IndicatorValues{
		RSI:             rsi,
		MACDLine:        macd.Line,
		MACDSignal:      macd.Signal,
		MACDHistogram:   macd.Histogram,
		BollingerUpper:  bands.Upper,
		BollingerMiddle: bands.Middle,
		BollingerLower:  bands.Lower,
	}, nil
}

package backtester

import (
	"time"

	"github.com/stratforge/TradeLab/pkg/indicator"
	"github.com/stratforge/TradeLab/pkg/strategy"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// risingBars builds n daily bars with closes start, start+1, ...
func risingBars(n int, start float64) []strategy.BarData {
	bars := make([]strategy.BarData, n)
	for i := range bars {
		close := start + float64(i)
		bars[i] = strategy.BarData{
			Symbol:    "AAPL",
			Timestamp: testStart.AddDate(0, 0, i),
			Open:      close,
			High:      close,
			Low:       close,
			Close:     close,
			Volume:    1000,
			Timeframe: "1d",
		}
	}
	return bars
}

// stubIndicators scripts indicator values per evaluated bar. The bar index
// is recovered from the window length (window ends at the evaluated bar), so
// scripts key on the number of bars seen so far.
type stubIndicators struct {
	rsiAt  map[int]float64 // window length -> RSI; unspecified lengths are neutral
	rsiErr error
	macd   indicator.MACDValue
	bands  *indicator.Bands

	calls []int // window lengths, in call order
}

func (s *stubIndicators) RSI(window []float64, period int) (float64, error) {
	s.calls = append(s.calls, len(window))
	if s.rsiErr != nil {
		return 0, s.rsiErr
	}
	if v, ok := s.rsiAt[len(window)]; ok {
		return v, nil
	}
	return 50, nil
}

func (s *stubIndicators) MACD(window []float64, fast, slow, signalPeriod int) (indicator.MACDValue, error) {
	return s.macd, nil
}

func (s *stubIndicators) Bollinger(window []float64, period int, stdDevMult float64) (indicator.Bands, error) {
	if s.bands != nil {
		return *s.bands, nil
	}
	// Wide bands cast no votes.
	return indicator.Bands{Upper: 1e9, Middle: 0, Lower: -1e9}, nil
}

var _ indicator.Provider = (*stubIndicators)(nil)

// rsiOnlyParams evaluates RSI alone: threshold 1 so a single vote fires.
func rsiOnlyParams() strategy.Parameters {
	params := strategy.DefaultParameters()
	params.SignalThreshold = 1
	return params
}

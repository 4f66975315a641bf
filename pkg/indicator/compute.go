package indicator

import (
	"fmt"
	"math"
)

// Calculator is the default Provider implementation. All methods are pure
// functions of the supplied window.
type Calculator struct{}

// NewCalculator returns the default indicator calculator.
func NewCalculator() Calculator {
	return Calculator{}
}

var _ Provider = Calculator{}

// RSI computes the Wilder-smoothed Relative Strength Index over the last
// period+1 closes of the window.
func (Calculator) RSI(window []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("rsi: period must be positive, got %d", period)
	}
	if len(window) < period+1 {
		return 0, fmt.Errorf("rsi: need %d closes, have %d: %w", period+1, len(window), ErrInsufficientWindow)
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder of the window.
	for i := period + 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// MACD computes the MACD line (fast EMA − slow EMA), its signal line (EMA of
// the MACD series), and the histogram for the final bar of the window.
func (Calculator) MACD(window []float64, fast, slow, signalPeriod int) (MACDValue, error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return MACDValue{}, fmt.Errorf("macd: periods must be positive, got fast=%d slow=%d signal=%d", fast, slow, signalPeriod)
	}
	if slow <= fast {
		return MACDValue{}, fmt.Errorf("macd: slow period %d must exceed fast period %d", slow, fast)
	}
	if len(window) < slow+signalPeriod {
		return MACDValue{}, fmt.Errorf("macd: need %d closes, have %d: %w", slow+signalPeriod, len(window), ErrInsufficientWindow)
	}

	fastEMA := emaSeries(window, fast)
	slowEMA := emaSeries(window, slow)

	macdSeries := make([]float64, len(window))
	for i := range window {
		macdSeries[i] = fastEMA[i] - slowEMA[i]
	}
	signalSeries := emaSeries(macdSeries, signalPeriod)

	last := len(window) - 1
	line := macdSeries[last]
	signal := signalSeries[last]
	return MACDValue{
		Line:      line,
		Signal:    signal,
		Histogram: line - signal,
	}, nil
}

// Bollinger computes the SMA of the last period closes and bands at
// ± stdDevMult population standard deviations around it.
func (Calculator) Bollinger(window []float64, period int, stdDevMult float64) (Bands, error) {
	if period <= 0 {
		return Bands{}, fmt.Errorf("bollinger: period must be positive, got %d", period)
	}
	if stdDevMult <= 0 {
		return Bands{}, fmt.Errorf("bollinger: std dev multiplier must be positive, got %f", stdDevMult)
	}
	if len(window) < period {
		return Bands{}, fmt.Errorf("bollinger: need %d closes, have %d: %w", period, len(window), ErrInsufficientWindow)
	}

	tail := window[len(window)-period:]

	var sum float64
	for _, c := range tail {
		sum += c
	}
	mean := sum / float64(period)

	var sumSquares float64
	for _, c := range tail {
		diff := c - mean
		sumSquares += diff * diff
	}
	stdDev := math.Sqrt(sumSquares / float64(period))

	return Bands{
		Upper:  mean + stdDevMult*stdDev,
		Middle: mean,
		Lower:  mean - stdDevMult*stdDev,
	}, nil
}

// emaSeries returns the exponential moving average of the series, seeded with
// the first value.
func emaSeries(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	k := 2.0 / (float64(period) + 1.0)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = series[i]*k + out[i-1]*(1.0-k)
	}
	return out
}

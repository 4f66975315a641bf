package indicator

import (
	"errors"
)

// ErrInsufficientWindow is returned when a price window is too short for the
// requested period.
var ErrInsufficientWindow = errors.New("insufficient window for indicator period")

// MACDValue holds the three MACD outputs for one bar.
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// Bands holds the Bollinger Band levels for one bar.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Provider computes indicator values from a window of closing prices. The
// window is ordered oldest-first and must end at the bar under evaluation;
// implementations must not look beyond the window.
type Provider interface {
	RSI(window []float64, period int) (float64, error)
	MACD(window []float64, fast, slow, signalPeriod int) (MACDValue, error)
	Bollinger(window []float64, period int, stdDevMult float64) (Bands, error)
}

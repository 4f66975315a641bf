package strategy

import (
	"fmt"
)

// IndicatorFamilies is the number of independent indicator families that cast
// votes (RSI, MACD, Bollinger). Signal strength is votes / IndicatorFamilies.
const IndicatorFamilies = 3

// Parameters is the immutable value bundle that configures one backtest run.
// Produced directly by a caller for a single run, or generated by the
// optimizer's Cartesian expansion.
type Parameters struct {
	RSIPeriod       int     `json:"rsi_period" yaml:"rsi_period"`
	MACDFast        int     `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow        int     `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal      int     `json:"macd_signal" yaml:"macd_signal"`
	BollingerPeriod int     `json:"bollinger_period" yaml:"bollinger_period"`
	BollingerStdDev float64 `json:"bollinger_std_dev" yaml:"bollinger_std_dev"`
	Oversold        float64 `json:"oversold" yaml:"oversold"`
	Overbought      float64 `json:"overbought" yaml:"overbought"`

	// SignalThreshold is the minimum number of indicator votes required
	// before a directional signal fires.
	SignalThreshold int `json:"signal_threshold" yaml:"signal_threshold"`

	// LookbackFloor is the minimum number of bars that must exist before
	// evaluation may start. Normalize raises it to at least the largest
	// indicator period.
	LookbackFloor int `json:"lookback_floor" yaml:"lookback_floor"`
}

// DefaultParameters returns the standard parameter bundle.
func DefaultParameters() Parameters {
	return Parameters{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		Oversold:        30,
		Overbought:      70,
		SignalThreshold: 2,
		LookbackFloor:   26,
	}
}

// Normalize returns a copy with LookbackFloor raised to at least the largest
// indicator period, so evaluation never starts before every indicator has a
// full window.
func (p Parameters) Normalize() Parameters {
	floor := p.LookbackFloor
	for _, period := range []int{p.RSIPeriod, p.MACDSlow, p.BollingerPeriod} {
		if period > floor {
			floor = period
		}
	}
	p.LookbackFloor = floor
	return p
}

// Validate checks the bundle for values that can never produce a meaningful
// run. MACD slow must exceed fast; the optimizer filters such combinations
// before execution, so hitting this from a sweep indicates a bug.
func (p Parameters) Validate() error {
	if p.RSIPeriod <= 0 {
		return fmt.Errorf("rsi period must be positive, got %d", p.RSIPeriod)
	}
	if p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0 {
		return fmt.Errorf("macd periods must be positive, got fast=%d slow=%d signal=%d",
			p.MACDFast, p.MACDSlow, p.MACDSignal)
	}
	if p.MACDSlow <= p.MACDFast {
		return fmt.Errorf("macd slow period %d must exceed fast period %d", p.MACDSlow, p.MACDFast)
	}
	if p.BollingerPeriod <= 0 {
		return fmt.Errorf("bollinger period must be positive, got %d", p.BollingerPeriod)
	}
	if p.BollingerStdDev <= 0 {
		return fmt.Errorf("bollinger std dev multiplier must be positive, got %f", p.BollingerStdDev)
	}
	if p.Oversold >= p.Overbought {
		return fmt.Errorf("oversold threshold %f must be below overbought threshold %f",
			p.Oversold, p.Overbought)
	}
	if p.SignalThreshold <= 0 {
		return fmt.Errorf("signal threshold must be positive, got %d", p.SignalThreshold)
	}
	return nil
}

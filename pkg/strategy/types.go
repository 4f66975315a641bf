package strategy

import (
	"time"
)

// BarData represents OHLCV data for a single time period
type BarData struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timeframe string
}

// SignalDirection represents the direction of a trading signal
type SignalDirection string

const (
	SignalBuy  SignalDirection = "BUY"
	SignalSell SignalDirection = "SELL"
)

// Signal is a directional trading signal derived from indicator values at one
// bar. It is consumed immediately by the simulator and never persisted.
type Signal struct {
	Direction  SignalDirection
	Strength   float64 // votes satisfied / total indicator families, in [0,1]
	Price      float64 // close of the triggering bar
	Timestamp  time.Time
	Indicators map[string]float64 // indicator values that produced the signal
}

// IndicatorValues carries the precomputed per-bar indicator values the signal
// generator consumes. The engine fills it from the indicator provider; the
// generator itself never computes indicator math.
type IndicatorValues struct {
	RSI             float64
	MACDLine        float64
	MACDSignal      float64
	MACDHistogram   float64
	BollingerUpper  float64
	BollingerMiddle float64
	BollingerLower  float64
}

// TradeEvent represents one execution: a position opening or closing.
// RealizedPL is 0 on open and the realized profit/loss on close.
type TradeEvent struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Side       SignalDirection `json:"side"`
	Quantity   float64         `json:"quantity"`
	Price      float64         `json:"price"`
	RealizedPL float64         `json:"realized_pl"`
}

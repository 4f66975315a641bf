package strategy

// GenerateSignal tallies buy and sell votes from the three indicator families
// and emits a signal when either tally reaches the signal threshold.
//
// Votes:
//   - RSI below the oversold threshold casts a buy vote; above overbought, a
//     sell vote.
//   - MACD line above its signal line with a positive histogram casts a buy
//     vote; the symmetric inverse casts a sell vote.
//   - Close below the lower Bollinger band casts a buy vote; above the upper
//     band, a sell vote.
//
// Buy is evaluated first: when both tallies reach the threshold on the same
// bar, the buy signal wins.
//
// Returns nil when no tally reaches the threshold; that is the common case,
// not an error.
func GenerateSignal(bar BarData, ind IndicatorValues, params Parameters) *Signal {
	buyVotes := 0
	sellVotes := 0

	if ind.RSI < params.Oversold {
		buyVotes++
	} else if ind.RSI > params.Overbought {
		sellVotes++
	}

	if ind.MACDLine > ind.MACDSignal && ind.MACDHistogram > 0 {
		buyVotes++
	} else if ind.MACDLine < ind.MACDSignal && ind.MACDHistogram < 0 {
		sellVotes++
	}

	if bar.Close < ind.BollingerLower {
		buyVotes++
	} else if bar.Close > ind.BollingerUpper {
		sellVotes++
	}

	if buyVotes >= params.SignalThreshold {
		return newSignal(SignalBuy, buyVotes, bar, ind)
	}
	if sellVotes >= params.SignalThreshold {
		return newSignal(SignalSell, sellVotes, bar, ind)
	}
	return nil
}

func newSignal(direction SignalDirection, votes int, bar BarData, ind IndicatorValues) *Signal {
	return &Signal{
		Direction: direction,
		Strength:  float64(votes) / float64(IndicatorFamilies),
		Price:     bar.Close,
		Timestamp: bar.Timestamp,
		Indicators: map[string]float64{
			"rsi":            ind.RSI,
			"macd":           ind.MACDLine,
			"macd_signal":    ind.MACDSignal,
			"macd_histogram": ind.MACDHistogram,
			"bb_upper":       ind.BollingerUpper,
			"bb_middle":      ind.BollingerMiddle,
			"bb_lower":       ind.BollingerLower,
		},
	}
}

package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParameters_Valid(t *testing.T) {
	assert.NoError(t, DefaultParameters().Validate())
}

func TestNormalize_RaisesLookbackFloor(t *testing.T) {
	params := DefaultParameters()
	params.LookbackFloor = 0

	normalized := params.Normalize()
	assert.Equal(t, 26, normalized.LookbackFloor, "floor must cover the MACD slow period")

	params.BollingerPeriod = 40
	assert.Equal(t, 40, params.Normalize().LookbackFloor)
}

func TestNormalize_KeepsLargerFloor(t *testing.T) {
	params := DefaultParameters()
	params.LookbackFloor = 120
	assert.Equal(t, 120, params.Normalize().LookbackFloor)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"zero rsi period", func(p *Parameters) { p.RSIPeriod = 0 }},
		{"negative macd fast", func(p *Parameters) { p.MACDFast = -1 }},
		{"slow not above fast", func(p *Parameters) { p.MACDSlow = p.MACDFast }},
		{"zero bollinger period", func(p *Parameters) { p.BollingerPeriod = 0 }},
		{"zero bollinger std dev", func(p *Parameters) { p.BollingerStdDev = 0 }},
		{"thresholds inverted", func(p *Parameters) { p.Oversold = 80; p.Overbought = 20 }},
		{"zero signal threshold", func(p *Parameters) { p.SignalThreshold = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParameters()
			tc.mutate(&params)
			assert.Error(t, params.Validate())
		})
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedSize_Exact(t *testing.T) {
	// balance=10000, capital_cap=0.5, max_position=0.05 → 250.0 exactly
	assert.Equal(t, 250.0, AllowedSize(10000, 0.5, 0.05))
}

func TestAllowedSize_ZeroBalance(t *testing.T) {
	assert.Equal(t, 0.0, AllowedSize(0, 0.5, 0.05))
}

func TestScaledSize_ConfidenceScalesDown(t *testing.T) {
	// hint 200 at 0.8 confidence → 160, under the 250 ceiling
	assert.InDelta(t, 160.0, ScaledSize(250, 200, 0.8), 0.001)
}

func TestScaledSize_CeilingBinds(t *testing.T) {
	// even a huge hint never exceeds the ceiling
	assert.Equal(t, 250.0, ScaledSize(250, 10000, 1.0))
}

func TestScaledSize_ZeroHintUsesCeiling(t *testing.T) {
	// producer left sizing to the governor
	assert.InDelta(t, 150.0, ScaledSize(250, 0, 0.6), 0.001)
}

func TestStopAndTakePrices(t *testing.T) {
	assert.InDelta(t, 98.0, StopPrice(100, 0.02), 0.001)
	assert.InDelta(t, 105.0, TakePrice(100, 0.05), 0.001)
}

func TestWinRateOf_ZeroTrades(t *testing.T) {
	// explicit boundary: 0/0 is 0.0, not NaN and not an error
	assert.Equal(t, 0.0, WinRateOf(0, 0))
}

func TestWinRateOf_Basic(t *testing.T) {
	assert.InDelta(t, 0.7333, WinRateOf(11, 4), 0.001)
	assert.InDelta(t, 0.5454, WinRateOf(30, 25), 0.001)
}

func TestSignalValidate(t *testing.T) {
	valid := Signal{Symbol: "BTC/CAD", Action: ActionBuy, Price: 50000, Confidence: 0.8}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name string
		sig  Signal
	}{
		{"empty symbol", Signal{Action: ActionBuy, Price: 1, Confidence: 0.5}},
		{"bad action", Signal{Symbol: "BTC/CAD", Action: "hold", Price: 1, Confidence: 0.5}},
		{"zero price", Signal{Symbol: "BTC/CAD", Action: ActionBuy, Confidence: 0.5}},
		{"confidence above one", Signal{Symbol: "BTC/CAD", Action: ActionBuy, Price: 1, Confidence: 1.2}},
		{"negative hint", Signal{Symbol: "BTC/CAD", Action: ActionBuy, Price: 1, Confidence: 0.5, SizeHint: -5}},
	}
	for _, tc := range cases {
		err := tc.sig.Validate()
		assert.Error(t, err, tc.name)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, tc.name)
	}
}

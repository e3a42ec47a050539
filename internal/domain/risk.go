package domain

// risk.go — pure position sizing and exit level math. No state, no clock.

// AllowedSize is the hard per-trade ceiling for a given balance: the capital
// cap carves out usable capital, max position caps a single trade within it.
//
//	usable = balance × capitalCap
//	size   = usable × maxPosition
func AllowedSize(balance, capitalCap, maxPosition float64) float64 {
	return balance * capitalCap * maxPosition
}

// ScaledSize is the notional actually deployed for an approved signal:
// min(ceiling, hint × confidence). Confidence scales size down, never up,
// and the per-trade ceiling always binds. A zero hint means the producer
// left sizing to the governor, so the ceiling itself is scaled.
func ScaledSize(ceiling, hint, confidence float64) float64 {
	if hint <= 0 {
		hint = ceiling
	}
	size := hint * confidence
	if size > ceiling {
		return ceiling
	}
	return size
}

// StopPrice derives the stop-loss level from the entry price.
func StopPrice(entry, stopPct float64) float64 {
	return entry * (1 - stopPct)
}

// TakePrice derives the take-profit level from the entry price.
func TakePrice(entry, takePct float64) float64 {
	return entry * (1 + takePct)
}

// WinRateOf is wins/(wins+losses), defined as exactly 0.0 when no trades have
// been recorded. The zero denominator is a normal boundary, not an error.
func WinRateOf(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0.0
	}
	return float64(wins) / float64(total)
}

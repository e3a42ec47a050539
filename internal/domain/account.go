package domain

// AccountState is the per-cycle snapshot the governor evaluates against.
// The engine owns the mutable originals; this value is rebuilt every cycle
// so the governor stays a pure function.
type AccountState struct {
	Balance        float64
	Drawdown       float64 // peak-to-current equity loss fraction, 0.0 – 1.0
	DailyPnL       float64 // realized pnl today as a fraction of the day's opening balance (negative = loss)
	TradesLastHour int
	OpenPositions  int
}

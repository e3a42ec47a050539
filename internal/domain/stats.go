package domain

import "time"

// Outcome classifies a realized trade.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Stats is an immutable snapshot of the performance tracker. Live counters
// cover the current live session only; they reset when a session ends
// (good run or demotion).
type Stats struct {
	ProcessStart    time.Time
	SessionStart    time.Time // promotion clock; restarts after a demotion
	LiveStart       time.Time // zero while not in a live session
	RetrainingStart time.Time // zero if no retraining cooldown has run

	PaperTrades int
	PaperWins   int
	PaperLosses int

	LiveTrades int
	LiveWins   int
	LiveLosses int

	TotalTrades int
	TotalWins   int
	TotalLosses int

	WinRate     float64 // paper
	LiveWinRate float64 // current live session

	ConsecutiveGoodRuns int
	ModeSwitches        int

	DailyPnL float64 // realized, quote currency, reset at the calendar-day boundary
}

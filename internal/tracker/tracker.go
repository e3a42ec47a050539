package tracker

import (
	"sync"
	"time"

	"github.com/alejandrodnm/chimera/internal/domain"
)

// Tracker accumulates trade outcomes, split by mode, plus the timestamps the
// mode controller reasons about. The live counters cover the current live
// session only; they reset when a session ends. All methods are safe for
// concurrent use — every check-then-act sequence here runs under the lock.
//
// Everything is in-memory: a process restart resets all counters and timers.
// That is a documented limitation of the system, not something to paper over.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	processStart    time.Time
	sessionStart    time.Time // promotion clock; restarts after a demotion
	liveStart       time.Time // zero while not in a live session
	retrainingStart time.Time // zero until the first demotion

	paperTrades, paperWins, paperLosses int
	liveTrades, liveWins, liveLosses    int
	totalTrades, totalWins, totalLosses int

	consecutiveGoodRuns int
	modeSwitches        int

	dailyPnL float64
	day      time.Time // calendar day the daily total belongs to
}

// New creates a tracker with both the process and promotion clocks started.
func New() *Tracker {
	return NewWithClock(time.Now)
}

// NewWithClock creates a tracker on a caller-supplied clock. Production code
// uses New; tests inject a fake clock to drive the timing-sensitive paths.
func NewWithClock(now func() time.Time) *Tracker {
	t := &Tracker{now: now}
	start := now()
	t.processStart = start
	t.sessionStart = start
	t.day = dayOf(start)
	return t
}

// RecordTrade records one realized trade outcome under the mode it was
// executed in, and accumulates pnl into the daily total (reset at the
// calendar-day boundary).
func (t *Tracker) RecordTrade(mode domain.Mode, outcome domain.Outcome, pnl float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollDay()
	t.dailyPnL += pnl

	t.totalTrades++
	win := outcome == domain.OutcomeWin
	if win {
		t.totalWins++
	} else {
		t.totalLosses++
	}

	if mode.Live() {
		t.liveTrades++
		if win {
			t.liveWins++
		} else {
			t.liveLosses++
		}
		return
	}
	t.paperTrades++
	if win {
		t.paperWins++
	} else {
		t.paperLosses++
	}
}

// WinRate is the paper win rate: wins/(wins+losses), exactly 0.0 with no trades.
func (t *Tracker) WinRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.WinRateOf(t.paperWins, t.paperLosses)
}

// LiveWinRate is the win rate of the current live session.
func (t *Tracker) LiveWinRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.WinRateOf(t.liveWins, t.liveLosses)
}

// Snapshot returns an immutable copy of the current statistics. Callers never
// see or touch the tracker's internals.
func (t *Tracker) Snapshot() domain.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	// roll the day here too: the daily total must read as zero after
	// midnight even before the first trade of the new day
	t.rollDay()

	return domain.Stats{
		ProcessStart:    t.processStart,
		SessionStart:    t.sessionStart,
		LiveStart:       t.liveStart,
		RetrainingStart: t.retrainingStart,

		PaperTrades: t.paperTrades,
		PaperWins:   t.paperWins,
		PaperLosses: t.paperLosses,

		LiveTrades: t.liveTrades,
		LiveWins:   t.liveWins,
		LiveLosses: t.liveLosses,

		TotalTrades: t.totalTrades,
		TotalWins:   t.totalWins,
		TotalLosses: t.totalLosses,

		WinRate:     domain.WinRateOf(t.paperWins, t.paperLosses),
		LiveWinRate: domain.WinRateOf(t.liveWins, t.liveLosses),

		ConsecutiveGoodRuns: t.consecutiveGoodRuns,
		ModeSwitches:        t.modeSwitches,

		DailyPnL: t.dailyPnL,
	}
}

// BeginLiveSession starts a fresh live session: session counters cleared,
// live clock started. Called by the mode controller on promotion.
func (t *Tracker) BeginLiveSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.liveStart = t.now()
	t.liveTrades, t.liveWins, t.liveLosses = 0, 0, 0
	t.modeSwitches++
}

// EndLiveSessionDemoted closes the live session after a demotion: the good-run
// streak is wiped, the retraining clock starts, and the promotion clock
// restarts from zero.
func (t *Tracker) EndLiveSessionDemoted() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.consecutiveGoodRuns = 0
	t.retrainingStart = now
	t.sessionStart = now
	t.liveStart = time.Time{}
	t.liveTrades, t.liveWins, t.liveLosses = 0, 0, 0
	t.modeSwitches++
}

// ResetSessionClock restarts the promotion clock. Used when an operator
// resumes from HALTED: the pre-halt runtime no longer argues for promotion.
func (t *Tracker) ResetSessionClock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionStart = t.now()
}

// RecordGoodRun credits a completed live session that met the good-run
// threshold: the streak grows and the session clock and counters restart
// without leaving live mode.
func (t *Tracker) RecordGoodRun() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.consecutiveGoodRuns++
	t.liveStart = t.now()
	t.liveTrades, t.liveWins, t.liveLosses = 0, 0, 0
	return t.consecutiveGoodRuns
}

// rollDay resets the daily total at the calendar-day boundary. Callers hold
// the lock.
func (t *Tracker) rollDay() {
	if d := dayOf(t.now()); !d.Equal(t.day) {
		t.dailyPnL = 0
		t.day = d
	}
}

func dayOf(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

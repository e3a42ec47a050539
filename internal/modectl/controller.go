package modectl

import (
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/chimera/config"
	"github.com/alejandrodnm/chimera/internal/domain"
	"github.com/alejandrodnm/chimera/internal/tracker"
)

// Controller is the promotion/demotion state machine. It owns the global mode
// and is the only component allowed to change it. Transitions happen
// synchronously inside Check, which the control loop calls once per cycle —
// never from a background timer — so a mode change always happens-before the
// next governor evaluation.
//
// Fail-safe defaults throughout: without the allow-live flag the controller
// never leaves PAPER, demotion wins over promotion whenever both could apply,
// and HALTED is only exited by explicit operator action. HALTED is entered by
// the operator, or automatically on a live hard-stop breach when the kill
// switch is armed.
type Controller struct {
	mu  sync.Mutex
	now func() time.Time

	mode       domain.Mode
	retraining bool // meaningful only in PAPER
	haltReason string

	allowLive  bool
	killSwitch bool
	promotion  config.PromotionCriteria
	demotion   config.DemotionCriteria
	hardStop   float64

	tracker *tracker.Tracker
}

// New builds a controller starting in PAPER.
func New(promotion config.PromotionCriteria, demotion config.DemotionCriteria, hardStop float64, allowLive bool, tr *tracker.Tracker) *Controller {
	return &Controller{
		now:       time.Now,
		mode:      domain.ModePaper,
		allowLive: allowLive,
		promotion: promotion,
		demotion:  demotion,
		hardStop:  hardStop,
		tracker:   tr,
	}
}

// Mode returns the current global mode.
func (c *Controller) Mode() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// EnableKillSwitch arms the kill switch: a hard-stop drawdown breach while
// live halts the system outright instead of demoting to paper.
func (c *Controller) EnableKillSwitch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killSwitch = true
}

// Retraining reports whether the PAPER retraining cooldown is active.
func (c *Controller) Retraining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retraining
}

// Halt stops all trading on explicit operator action. Nothing automatic
// leaves HALTED.
func (c *Controller) Halt(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == domain.ModeHalted {
		return
	}
	c.mode = domain.ModeHalted
	c.haltReason = reason
	slog.Warn("modectl: trading halted", "reason", reason)
}

// Resume exits HALTED back to PAPER. The promotion clock restarts: pre-halt
// runtime no longer argues for promotion.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != domain.ModeHalted {
		return
	}
	c.mode = domain.ModePaper
	c.haltReason = ""
	c.tracker.ResetSessionClock()
	slog.Warn("modectl: trading resumed in paper mode")
}

// Check runs one evaluation of the state machine against the tracker's
// current stats and the account drawdown, and returns the (possibly new)
// mode. Promotion logic only runs in PAPER, demotion logic only in
// LIVE_LIMITED; HALTED is inert.
func (c *Controller) Check(drawdown float64) domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case domain.ModeLiveLimited:
		c.checkLive(drawdown)
	case domain.ModePaper:
		c.checkPaper(drawdown)
	}
	return c.mode
}

// checkLive evaluates demotion first — removing real-money exposure always
// takes precedence over crediting a good run.
func (c *Controller) checkLive(drawdown float64) {
	stats := c.tracker.Snapshot()

	// armed kill switch: a hard-stop breach with real money on the line is
	// not a demotion, it is a full stop pending operator review, and it does
	// not wait out the minimum session length
	if c.killSwitch && drawdown >= c.hardStop {
		c.mode = domain.ModeHalted
		c.haltReason = "hard stop loss breached in live mode"
		c.retraining = true // applies once an operator resumes into paper
		c.tracker.EndLiveSessionDemoted()
		slog.Error("modectl: kill switch tripped, trading halted",
			"drawdown", drawdown,
			"hard_stop_loss", c.hardStop,
		)
		return
	}

	elapsed := c.now().Sub(stats.LiveStart)
	if elapsed < c.minutes(c.demotion.MinLiveMinutes) {
		return
	}

	winRate := stats.LiveWinRate
	if winRate < c.demotion.MinWinRate || drawdown >= c.hardStop {
		c.mode = domain.ModePaper
		c.retraining = true
		c.tracker.EndLiveSessionDemoted()
		slog.Warn("modectl: demoted to paper",
			"live_win_rate", winRate,
			"drawdown", drawdown,
			"session_minutes", elapsed.Minutes(),
			"retraining_minutes", c.demotion.RetrainingMinutes,
		)
		return
	}

	if winRate >= c.demotion.GoodRunThreshold {
		runs := c.tracker.RecordGoodRun()
		slog.Info("modectl: good live run recorded",
			"win_rate", winRate,
			"consecutive_good_runs", runs,
		)
	}
}

// checkPaper evaluates the two promotion paths. An active retraining cooldown
// blocks both, including fast-skip: a bot that just lost the right to trade
// live does not get to skip the line.
func (c *Controller) checkPaper(drawdown float64) {
	now := c.now()
	stats := c.tracker.Snapshot()

	if c.retraining {
		until := stats.RetrainingStart.Add(c.minutes(c.demotion.RetrainingMinutes))
		if now.Before(until) {
			return
		}
		c.retraining = false
		slog.Info("modectl: retraining cooldown complete")
	}

	// Fail-safe default: without the explicit allow-live flag the controller
	// stays in PAPER no matter how good the stats look.
	if !c.allowLive {
		return
	}

	if c.promotion.SkipAfterGoodRuns > 0 && stats.ConsecutiveGoodRuns >= c.promotion.SkipAfterGoodRuns {
		c.promote("fast_skip", stats)
		return
	}

	runtime := now.Sub(stats.SessionStart)
	if runtime >= c.minutes(c.promotion.MinRuntimeMinutes) &&
		stats.PaperTrades >= c.promotion.MinTradeCount &&
		stats.WinRate >= c.promotion.MinWinRate &&
		drawdown <= c.hardStop {
		c.promote("standard", stats)
	}
}

func (c *Controller) promote(path string, stats domain.Stats) {
	c.mode = domain.ModeLiveLimited
	c.retraining = false
	c.tracker.BeginLiveSession()
	slog.Warn("modectl: promoted to live-limited",
		"path", path,
		"paper_trades", stats.PaperTrades,
		"win_rate", stats.WinRate,
		"consecutive_good_runs", stats.ConsecutiveGoodRuns,
	)
}

func (c *Controller) minutes(m int) time.Duration {
	return time.Duration(m) * time.Minute
}

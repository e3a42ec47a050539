package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/chimera/config"
	"github.com/alejandrodnm/chimera/internal/domain"
	"github.com/alejandrodnm/chimera/internal/executor"
	"github.com/alejandrodnm/chimera/internal/governor"
	"github.com/alejandrodnm/chimera/internal/modectl"
	"github.com/alejandrodnm/chimera/internal/ports"
	"github.com/alejandrodnm/chimera/internal/tracker"
)

// position is an open holding, carried at its average entry price.
type position struct {
	quantity float64
	avgEntry float64
}

// Engine runs the single-threaded control loop: pull a signal, snapshot the
// account, ask the governor, execute, settle, then let the mode controller
// re-evaluate. Exactly one cycle is ever in flight — mode transitions and risk
// decisions are strictly ordered with executions.
type Engine struct {
	cfg      *config.Config
	feed     ports.SignalSource
	gov      *governor.Governor
	exec     *executor.Executor
	ctrl     *modectl.Controller
	tracker  *tracker.Tracker
	reporter ports.Reporter
	now      func() time.Time

	// account bookkeeping, owned by the loop goroutine. balance is equity
	// (cash plus positions at cost) and only moves on realized pnl; cash
	// mirrors the platform's quote ledger so the account state predicts what
	// the platform will accept.
	balance    float64
	cash       float64
	peak       float64
	dayStart   float64
	day        time.Time
	tradeTimes []time.Time
	positions  map[string]position

	lastReport time.Time
}

// New wires an engine from its collaborators. reporter may be nil.
func New(
	cfg *config.Config,
	feed ports.SignalSource,
	gov *governor.Governor,
	exec *executor.Executor,
	ctrl *modectl.Controller,
	tr *tracker.Tracker,
	reporter ports.Reporter,
) *Engine {
	now := time.Now
	return &Engine{
		cfg:        cfg,
		feed:       feed,
		gov:        gov,
		exec:       exec,
		ctrl:       ctrl,
		tracker:    tr,
		reporter:   reporter,
		now:        now,
		balance:    cfg.Trading.InitialBalance,
		cash:       cfg.Trading.InitialBalance,
		peak:       cfg.Trading.InitialBalance,
		dayStart:   cfg.Trading.InitialBalance,
		day:        dayOf(now()),
		positions:  make(map[string]position),
		lastReport: now(),
	}
}

// CycleResult describes what one cycle did.
type CycleResult struct {
	Mode     domain.Mode
	Signal   domain.Signal
	Decision domain.Decision
	Executed bool
	Realized float64 // realized pnl on a close, quote currency
	Skipped  string  // non-empty when the cycle did nothing, with the reason
}

// Run drives the loop until the context is cancelled. Each cycle is isolated:
// a panic is logged and the loop keeps going on the next tick.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.cfg.CycleInterval()
	slog.Info("engine: starting control loop",
		"symbol", e.cfg.Trading.Symbol,
		"interval", interval,
		"initial_balance", e.balance,
		"allow_live", e.cfg.Trading.AllowLive,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		e.safeCycle(ctx)
		e.maybeReport(ctx)

		select {
		case <-ctx.Done():
			slog.Info("engine: control loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *Engine) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: cycle panicked", "panic", r)
		}
	}()
	if _, err := e.RunOnce(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("engine: cycle failed", "err", err)
	}
}

// RunOnce executes a single cycle.
func (e *Engine) RunOnce(ctx context.Context) (*CycleResult, error) {
	e.rollDay()

	mode := e.ctrl.Mode()
	result := &CycleResult{Mode: mode}
	if mode == domain.ModeHalted {
		result.Skipped = "halted"
		return result, nil
	}

	sig, err := e.feed.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: next signal: %w", err)
	}
	result.Signal = sig

	// sells need something to close; signals against a flat book are noise
	if sig.Action == domain.ActionSell {
		if pos, ok := e.positions[sig.Symbol]; !ok || pos.quantity <= 0 {
			result.Skipped = "no position to close"
			e.checkMode(result)
			return result, nil
		}
	}

	acct := e.accountState()
	dec, err := e.gov.Evaluate(sig, acct)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: evaluate signal: %w", err)
	}
	result.Decision = dec

	if !dec.Approved {
		slog.Debug("engine: signal rejected",
			"reason", dec.Reason,
			"symbol", sig.Symbol,
			"confidence", sig.Confidence,
		)
		e.exec.RecordRejection(ctx, mode, sig, dec.Reason)
		e.checkMode(result)
		return result, nil
	}

	// clamp to what the book can honor: a sell closes at most the held
	// quantity (sizing by notional would otherwise exceed the holding at any
	// price below entry and get refused by the platform), a buy spends at
	// most the available cash
	switch sig.Action {
	case domain.ActionSell:
		if held := e.positions[sig.Symbol].quantity * sig.Price; dec.PositionSize > held {
			dec.PositionSize = held
		}
	case domain.ActionBuy:
		if dec.PositionSize > e.cash {
			dec.PositionSize = e.cash
		}
		if dec.PositionSize <= 0 {
			result.Skipped = "insufficient cash"
			e.checkMode(result)
			return result, nil
		}
	}
	result.Decision = dec

	res := e.exec.Execute(ctx, mode, sig, dec)
	if res.Err != nil {
		if domain.IsRetryable(res.Err) {
			slog.Warn("engine: execution deferred", "err", res.Err)
		} else {
			slog.Error("engine: execution failed", "err", res.Err)
		}
		e.checkMode(result)
		return result, nil
	}
	result.Executed = true
	result.Realized = e.settle(mode, res.Order, res.Fill)

	e.checkMode(result)
	return result, nil
}

// settle applies a fill to the position book and, on a close, records the
// realized outcome with the tracker. Returns the realized pnl.
func (e *Engine) settle(mode domain.Mode, order domain.Order, fill domain.Fill) float64 {
	e.tradeTimes = append(e.tradeTimes, e.now())

	qty := fill.FilledQuantity
	price := fill.FilledPrice
	if qty == 0 { // order accepted but not yet filled (live limit order)
		qty = order.Quantity
		price = order.Price
	}

	pos := e.positions[order.Symbol]
	if order.Side == domain.ActionBuy {
		total := pos.quantity + qty
		pos.avgEntry = (pos.avgEntry*pos.quantity + price*qty) / total
		pos.quantity = total
		e.positions[order.Symbol] = pos
		e.cash -= price * qty
		return 0
	}

	if qty > pos.quantity {
		qty = pos.quantity
	}
	e.cash += price * qty
	pnl := (price - pos.avgEntry) * qty
	pos.quantity -= qty
	if pos.quantity <= 0 {
		delete(e.positions, order.Symbol)
	} else {
		e.positions[order.Symbol] = pos
	}

	e.balance += pnl
	if e.balance > e.peak {
		e.peak = e.balance
	}

	outcome := domain.OutcomeWin
	if pnl < 0 {
		outcome = domain.OutcomeLoss
	}
	e.tracker.RecordTrade(mode, outcome, pnl)
	slog.Info("engine: position closed",
		"mode", mode,
		"symbol", order.Symbol,
		"pnl", fmt.Sprintf("%.2f", pnl),
		"outcome", outcome,
	)
	return pnl
}

// checkMode lets the controller re-evaluate after the cycle's bookkeeping is
// done, and logs when the mode changed.
func (e *Engine) checkMode(result *CycleResult) {
	before := result.Mode
	after := e.ctrl.Check(e.drawdown())
	if after != before {
		slog.Info("engine: mode changed", "from", before, "to", after)
	}
	result.Mode = after
}

// accountState snapshots the loop's bookkeeping for the governor.
func (e *Engine) accountState() domain.AccountState {
	e.pruneTradeTimes()
	return domain.AccountState{
		Balance:        e.balance,
		Drawdown:       e.drawdown(),
		DailyPnL:       e.dailyPnLFraction(),
		TradesLastHour: len(e.tradeTimes),
		OpenPositions:  len(e.positions),
	}
}

func (e *Engine) drawdown() float64 {
	if e.peak <= 0 {
		return 0
	}
	return (e.peak - e.balance) / e.peak
}

func (e *Engine) dailyPnLFraction() float64 {
	if e.dayStart <= 0 {
		return 0
	}
	return (e.balance - e.dayStart) / e.dayStart
}

func (e *Engine) pruneTradeTimes() {
	cutoff := e.now().Add(-time.Hour)
	kept := e.tradeTimes[:0]
	for _, ts := range e.tradeTimes {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.tradeTimes = kept
}

// rollDay resets the daily baseline at the UTC calendar-day boundary.
func (e *Engine) rollDay() {
	if d := dayOf(e.now()); !d.Equal(e.day) {
		e.day = d
		e.dayStart = e.balance
	}
}

func (e *Engine) maybeReport(ctx context.Context) {
	if e.reporter == nil {
		return
	}
	now := e.now()
	if now.Sub(e.lastReport) < e.cfg.ReportInterval() {
		return
	}
	e.lastReport = now
	if err := e.reporter.Report(ctx, e.ctrl.Mode(), e.tracker.Snapshot(), e.accountState()); err != nil {
		slog.Warn("engine: report failed", "err", err)
	}
}

func dayOf(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

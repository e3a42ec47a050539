package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/chimera/internal/domain"
	"github.com/alejandrodnm/chimera/internal/ports"
)

// Result is the outcome of one execution attempt.
type Result struct {
	Success bool
	Order   domain.Order
	Fill    domain.Fill
	Err     error
}

// Executor routes approved decisions to the platform adapter that matches the
// current mode. It never consults the risk limits itself — by the time an
// order reaches it, the governor has already sized and approved it — and it
// never changes the mode.
//
// The live adapter may be nil when live trading was not configured; in that
// case a LIVE_LIMITED execution fails closed with ErrSafetyLocked rather than
// silently falling back to simulation.
type Executor struct {
	paper     ports.Platform
	live      ports.Platform
	allowLive bool
	journal   ports.Journal // optional
	now       func() time.Time

	mu      sync.Mutex
	history []domain.ExecutionRecord
}

// New builds an executor over the two platform adapters. live may be nil.
func New(paper, live ports.Platform, allowLive bool, journal ports.Journal) *Executor {
	return &Executor{
		paper:     paper,
		live:      live,
		allowLive: allowLive,
		journal:   journal,
		now:       time.Now,
	}
}

// Execute places the order described by an approved decision under the given
// mode. In HALTED it does nothing and records nothing; in PAPER it goes to the
// simulated adapter; in LIVE_LIMITED it goes to the real adapter only when
// live trading is both permitted and configured.
//
// Every attempt outside HALTED lands in the execution history, failures
// included.
func (e *Executor) Execute(ctx context.Context, mode domain.Mode, sig domain.Signal, dec domain.Decision) Result {
	if mode == domain.ModeHalted {
		return Result{Err: domain.ErrHalted}
	}
	if !dec.Approved {
		return Result{Err: fmt.Errorf("executor.Execute: decision not approved: %s", dec.Reason)}
	}

	order := domain.Order{
		Symbol:     sig.Symbol,
		Side:       sig.Action,
		Quantity:   dec.PositionSize / sig.Price, // notional → base units
		Price:      sig.Price,
		StopLoss:   dec.StopLoss,
		TakeProfit: dec.TakeProfit,
	}

	platform, err := e.platformFor(mode)
	if err != nil {
		e.record(ctx, domain.ExecutionRecord{
			Mode:      mode,
			Symbol:    order.Symbol,
			Side:      order.Side,
			Quantity:  order.Quantity,
			Price:     order.Price,
			Status:    domain.OrderStatusRejected,
			Error:     err.Error(),
			Timestamp: e.now(),
		})
		return Result{Order: order, Err: err}
	}

	fill, err := platform.PlaceOrder(ctx, order)
	rec := domain.ExecutionRecord{
		OrderID:   fill.OrderID,
		Mode:      mode,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Quantity:  order.Quantity,
		Price:     order.Price,
		Status:    fill.Status,
		Timestamp: e.now(),
	}
	if err != nil {
		rec.Status = domain.OrderStatusRejected
		rec.Error = err.Error()
		e.record(ctx, rec)
		return Result{Order: order, Err: fmt.Errorf("executor.Execute: place order: %w", err)}
	}

	e.record(ctx, rec)
	return Result{Success: true, Order: order, Fill: fill}
}

// RecordRejection journals a governor rejection so the audit trail covers
// signals that never became orders.
func (e *Executor) RecordRejection(ctx context.Context, mode domain.Mode, sig domain.Signal, reason string) {
	e.record(ctx, domain.ExecutionRecord{
		Mode:      mode,
		Symbol:    sig.Symbol,
		Side:      sig.Action,
		Price:     sig.Price,
		Status:    domain.OrderStatusRejected,
		Error:     reason,
		Timestamp: e.now(),
	})
}

// History returns a copy of the execution history, oldest first.
func (e *Executor) History() []domain.ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.ExecutionRecord, len(e.history))
	copy(out, e.history)
	return out
}

// platformFor resolves the adapter for a mode. The LIVE_LIMITED path fails
// closed: no allow-live flag or no configured adapter means ErrSafetyLocked,
// never a quiet downgrade to simulation.
func (e *Executor) platformFor(mode domain.Mode) (ports.Platform, error) {
	if !mode.Live() {
		return e.paper, nil
	}
	if !e.allowLive || e.live == nil {
		return nil, domain.ErrSafetyLocked
	}
	return e.live, nil
}

func (e *Executor) record(ctx context.Context, rec domain.ExecutionRecord) {
	e.mu.Lock()
	e.history = append(e.history, rec)
	e.mu.Unlock()

	if e.journal == nil {
		return
	}
	// Journal writes are best-effort: an audit sink outage must not block
	// or fail the trading path.
	if err := e.journal.Append(ctx, rec); err != nil {
		slog.Error("executor: journal append failed", "error", err, "order_id", rec.OrderID)
	}
}

package ndax

import (
	"context"
	"fmt"
	"sync"

	"github.com/alejandrodnm/chimera/internal/domain"
	"github.com/google/uuid"
)

// Paper is the simulated platform: orders fill instantly at their limit price
// against an in-memory ledger. It never fails for platform reasons — no
// network, no auth, no rate limits — so the only errors it returns are ledger
// ones (insufficient balance, unknown order).
type Paper struct {
	mu       sync.Mutex
	quote    float64            // quote currency balance
	base     map[string]float64 // base units held per symbol
	statuses map[string]domain.OrderStatus
}

// NewPaper builds a simulated platform funded with an initial quote balance.
func NewPaper(initialBalance float64) *Paper {
	return &Paper{
		quote:    initialBalance,
		base:     make(map[string]float64),
		statuses: make(map[string]domain.OrderStatus),
	}
}

// PlaceOrder fills the order immediately at its limit price and settles the
// ledger. Buys need quote balance, sells need base units.
func (p *Paper) PlaceOrder(_ context.Context, order domain.Order) (domain.Fill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := order.Quantity * order.Price
	switch order.Side {
	case domain.ActionBuy:
		if cost > p.quote {
			return domain.Fill{}, fmt.Errorf("ndax.Paper.PlaceOrder: insufficient quote balance: need %.2f, have %.2f", cost, p.quote)
		}
		p.quote -= cost
		p.base[order.Symbol] += order.Quantity
	case domain.ActionSell:
		if order.Quantity > p.base[order.Symbol] {
			return domain.Fill{}, fmt.Errorf("ndax.Paper.PlaceOrder: insufficient %s position: need %v, have %v", order.Symbol, order.Quantity, p.base[order.Symbol])
		}
		p.base[order.Symbol] -= order.Quantity
		p.quote += cost
	default:
		return domain.Fill{}, &domain.ValidationError{Field: "side", Reason: fmt.Sprintf("unknown action %q", order.Side)}
	}

	id := uuid.NewString()
	p.statuses[id] = domain.OrderStatusFilled
	return domain.Fill{
		OrderID:        id,
		Status:         domain.OrderStatusFilled,
		FilledPrice:    order.Price,
		FilledQuantity: order.Quantity,
	}, nil
}

// CancelOrder cancels an open order. Simulated orders fill instantly, so this
// only ever reports the order as unknown or already terminal.
func (p *Paper) CancelOrder(_ context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[orderID]
	if !ok {
		return fmt.Errorf("ndax.Paper.CancelOrder: unknown order %q", orderID)
	}
	if status != domain.OrderStatusOpen {
		return fmt.Errorf("ndax.Paper.CancelOrder: order %q is %s, not open", orderID, status)
	}
	p.statuses[orderID] = domain.OrderStatusCancelled
	return nil
}

// Balance returns the simulated quote balance.
func (p *Paper) Balance(context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote, nil
}

// Position returns the simulated base units held for a symbol.
func (p *Paper) Position(_ context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base[symbol], nil
}

// Status reports the simulator as always connected, never safety locked.
func (p *Paper) Status(context.Context) domain.PlatformStatus {
	return domain.PlatformStatus{Connected: true, SafetyLock: false, Testnet: true}
}

package ports

import (
	"context"

	"github.com/alejandrodnm/chimera/internal/domain"
)

// Platform places and cancels orders on an exchange. Two adapters implement
// it: a simulated one that fills instantly against an in-memory ledger, and
// the real NDAX adapter that refuses to do anything while its safety lock is
// engaged.
type Platform interface {
	// PlaceOrder submits an order and returns the resulting fill.
	// The simulated adapter never fails for platform reasons.
	PlaceOrder(ctx context.Context, order domain.Order) (domain.Fill, error)

	// CancelOrder cancels an open order by its platform order ID.
	CancelOrder(ctx context.Context, orderID string) error

	// Balance returns the available quote-currency balance.
	Balance(ctx context.Context) (float64, error)

	// Position returns the base units currently held for a symbol.
	Position(ctx context.Context, symbol string) (float64, error)

	// Status describes the adapter's current condition.
	Status(ctx context.Context) domain.PlatformStatus
}

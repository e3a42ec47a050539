package ndax

import (
	"context"
	"testing"

	"github.com/alejandrodnm/chimera/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaper_BuyFillsInstantlyAndSettles(t *testing.T) {
	p := NewPaper(10000)
	ctx := context.Background()

	fill, err := p.PlaceOrder(ctx, domain.Order{
		Symbol:   "BTC/CAD",
		Side:     domain.ActionBuy,
		Quantity: 0.004,
		Price:    50000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, fill.OrderID)
	assert.Equal(t, domain.OrderStatusFilled, fill.Status)
	assert.Equal(t, 50000.0, fill.FilledPrice)

	bal, err := p.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9800.0, bal, 0.001) // 10000 - 0.004×50000

	pos, err := p.Position(ctx, "BTC/CAD")
	require.NoError(t, err)
	assert.InDelta(t, 0.004, pos, 1e-9)
}

func TestPaper_SellRoundTrip(t *testing.T) {
	p := NewPaper(10000)
	ctx := context.Background()

	_, err := p.PlaceOrder(ctx, domain.Order{Symbol: "BTC/CAD", Side: domain.ActionBuy, Quantity: 0.004, Price: 50000})
	require.NoError(t, err)

	_, err = p.PlaceOrder(ctx, domain.Order{Symbol: "BTC/CAD", Side: domain.ActionSell, Quantity: 0.004, Price: 52000})
	require.NoError(t, err)

	bal, _ := p.Balance(ctx)
	assert.InDelta(t, 10008.0, bal, 0.001) // +0.004×(52000-50000)

	pos, _ := p.Position(ctx, "BTC/CAD")
	assert.Zero(t, pos)
}

func TestPaper_InsufficientFunds(t *testing.T) {
	p := NewPaper(100)
	ctx := context.Background()

	_, err := p.PlaceOrder(ctx, domain.Order{Symbol: "BTC/CAD", Side: domain.ActionBuy, Quantity: 1, Price: 50000})
	assert.Error(t, err)

	_, err = p.PlaceOrder(ctx, domain.Order{Symbol: "BTC/CAD", Side: domain.ActionSell, Quantity: 1, Price: 50000})
	assert.Error(t, err, "cannot sell what is not held")

	// failed orders leave the ledger untouched
	bal, _ := p.Balance(ctx)
	assert.Equal(t, 100.0, bal)
}

func TestPaper_CancelFilledOrderFails(t *testing.T) {
	p := NewPaper(10000)
	ctx := context.Background()

	fill, err := p.PlaceOrder(ctx, domain.Order{Symbol: "BTC/CAD", Side: domain.ActionBuy, Quantity: 0.001, Price: 50000})
	require.NoError(t, err)

	assert.Error(t, p.CancelOrder(ctx, fill.OrderID), "instant fills are never open")
	assert.Error(t, p.CancelOrder(ctx, "no-such-order"))
}

func TestPaper_Status(t *testing.T) {
	st := NewPaper(10000).Status(context.Background())
	assert.True(t, st.Connected)
	assert.False(t, st.SafetyLock)
	assert.True(t, st.Testnet)
}

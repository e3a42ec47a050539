package engine

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/chimera/config"
	"github.com/alejandrodnm/chimera/internal/adapters/ndax"
	"github.com/alejandrodnm/chimera/internal/domain"
	"github.com/alejandrodnm/chimera/internal/executor"
	"github.com/alejandrodnm/chimera/internal/governor"
	"github.com/alejandrodnm/chimera/internal/modectl"
	"github.com/alejandrodnm/chimera/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFeed replays a fixed sequence of signals.
type scriptedFeed struct {
	signals []domain.Signal
	i       int
}

func (f *scriptedFeed) Next(context.Context) (domain.Signal, error) {
	sig := f.signals[f.i%len(f.signals)]
	f.i++
	return sig, nil
}

func buy(price, confidence float64) domain.Signal {
	return domain.Signal{Symbol: "BTC/CAD", Action: domain.ActionBuy, Price: price, Confidence: confidence}
}

func sell(price, confidence float64) domain.Signal {
	return domain.Signal{Symbol: "BTC/CAD", Action: domain.ActionSell, Price: price, Confidence: confidence}
}

func testConfig() *config.Config {
	return &config.Config{
		Trading: config.TradingConfig{
			Symbol:                "BTC/CAD",
			IntervalSeconds:       60,
			InitialBalance:        10000,
			ReportIntervalMinutes: 60,
		},
		Risk: config.RiskLimits{
			CapitalCap:       0.50,
			MaxPosition:      0.05,
			MaxTradesPerHour: 100,
			HardStopLoss:     0.30,
			MaxDailyLoss:     0.50,
			MaxOpenPositions: 5,
			MinConfidence:    0.60,
			StopLossPct:      0.02,
			TakeProfitPct:    0.05,
		},
		Promotion: config.PromotionCriteria{MinRuntimeMinutes: 60, MinTradeCount: 30, MinWinRate: 0.70, SkipAfterGoodRuns: 3},
		Demotion:  config.DemotionCriteria{MinLiveMinutes: 60, MinWinRate: 0.60, RetrainingMinutes: 120, GoodRunThreshold: 0.75},
	}
}

// newEngine wires an engine over the paper adapter and the given feed.
func newEngine(t *testing.T, cfg *config.Config, feed *scriptedFeed) (*Engine, *executor.Executor, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New()
	ctrl := modectl.New(cfg.Promotion, cfg.Demotion, cfg.Risk.HardStopLoss, cfg.Trading.AllowLive, tr)
	ex := executor.New(ndax.NewPaper(cfg.Trading.InitialBalance), nil, false, nil)
	gov := governor.New(cfg.Risk)
	return New(cfg, feed, gov, ex, ctrl, tr, nil), ex, tr
}

func TestRunOnce_BuyThenProfitableSell(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8), sell(52000, 0.8)}}
	e, ex, tr := newEngine(t, cfg, feed)
	ctx := context.Background()

	res, err := e.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.Zero(t, res.Realized, "opening a position realizes nothing")
	assert.Len(t, e.positions, 1)

	opened := e.positions["BTC/CAD"].quantity

	res, err = e.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, res.Executed)
	assert.Greater(t, res.Realized, 0.0)
	// the governor sizes exits like entries, so the close may be partial
	assert.Less(t, e.positions["BTC/CAD"].quantity, opened)

	s := tr.Snapshot()
	assert.Equal(t, 1, s.PaperTrades, "only the close counts as a trade outcome")
	assert.Equal(t, 1, s.PaperWins)
	assert.Greater(t, e.balance, cfg.Trading.InitialBalance)

	hist := ex.History()
	require.Len(t, hist, 2)
	assert.Equal(t, domain.OrderStatusFilled, hist[0].Status)
	assert.Equal(t, domain.OrderStatusFilled, hist[1].Status)
}

func TestRunOnce_LosingSellMovesDrawdown(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8), sell(48000, 0.8)}}
	e, _, tr := newEngine(t, cfg, feed)
	ctx := context.Background()

	_, err := e.RunOnce(ctx)
	require.NoError(t, err)
	res, err := e.RunOnce(ctx)
	require.NoError(t, err)

	assert.Less(t, res.Realized, 0.0)
	assert.Equal(t, 1, tr.Snapshot().PaperLosses)
	assert.Greater(t, e.drawdown(), 0.0)
	assert.Less(t, e.dailyPnLFraction(), 0.0)
}

func TestRunOnce_LosingCloseFillsAtFullPosition(t *testing.T) {
	// below entry the sized base quantity exceeds the holding; the engine
	// must clamp the close to the position instead of letting the platform
	// refuse it — otherwise only winning closes would ever realize
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8), sell(48000, 0.8)}}
	e, ex, tr := newEngine(t, cfg, feed)
	ctx := context.Background()

	_, err := e.RunOnce(ctx)
	require.NoError(t, err)
	opened := e.positions["BTC/CAD"].quantity

	res, err := e.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, res.Executed)
	assert.InDelta(t, (48000.0-50000.0)*opened, res.Realized, 1e-9)
	assert.Empty(t, e.positions, "clamped close exits the whole position")
	assert.Equal(t, 1, tr.Snapshot().PaperLosses)

	hist := ex.History()
	require.Len(t, hist, 2)
	assert.Equal(t, domain.OrderStatusFilled, hist[1].Status)
	assert.InDelta(t, opened, hist[1].Quantity, 1e-9)
}

func TestRunOnce_BuyClampedToAvailableCash(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8)}}
	e, _, _ := newEngine(t, cfg, feed)
	e.cash = 100 // below the sized 200 notional

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, res.Executed)
	assert.InDelta(t, 100.0/50000.0, e.positions["BTC/CAD"].quantity, 1e-9)
	assert.InDelta(t, 0.0, e.cash, 1e-9)
}

func TestRunOnce_NoCashSkipsInsteadOfFailing(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8)}}
	e, ex, _ := newEngine(t, cfg, feed)
	e.cash = 0

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Executed)
	assert.Equal(t, "insufficient cash", res.Skipped)
	assert.Empty(t, ex.History())
}

func TestSettle_CashMirrorsTheLedger(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8), sell(48000, 0.8)}}
	e, _, _ := newEngine(t, cfg, feed)
	ctx := context.Background()

	_, err := e.RunOnce(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9800.0, e.cash, 1e-9) // 10000 - 200 notional

	_, err = e.RunOnce(ctx)
	require.NoError(t, err)
	// full close at 48000: cash back is 0.004×48000, equity books the -8
	assert.InDelta(t, 9992.0, e.cash, 1e-9)
	assert.InDelta(t, 9992.0, e.balance, 1e-9)
}

func TestRunOnce_SellWithoutPositionIsSkipped(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{sell(50000, 0.9)}}
	e, ex, _ := newEngine(t, cfg, feed)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Executed)
	assert.Equal(t, "no position to close", res.Skipped)
	assert.Empty(t, ex.History())
}

func TestRunOnce_LowConfidenceRejectionIsJournaled(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.55)}}
	e, ex, _ := newEngine(t, cfg, feed)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Executed)
	assert.False(t, res.Decision.Approved)
	assert.Equal(t, domain.ReasonLowConfidence, res.Decision.Reason)

	hist := ex.History()
	require.Len(t, hist, 1)
	assert.Equal(t, domain.OrderStatusRejected, hist[0].Status)
	assert.Equal(t, domain.ReasonLowConfidence, hist[0].Error)
}

func TestRunOnce_HaltedDoesNothing(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.9)}}
	tr := tracker.New()
	ctrl := modectl.New(cfg.Promotion, cfg.Demotion, cfg.Risk.HardStopLoss, false, tr)
	ex := executor.New(ndax.NewPaper(cfg.Trading.InitialBalance), nil, false, nil)
	e := New(cfg, feed, governor.New(cfg.Risk), ex, ctrl, tr, nil)

	ctrl.Halt("test")
	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "halted", res.Skipped)
	assert.Zero(t, feed.i, "halted cycles do not consume signals")
	assert.Empty(t, ex.History())
}

func TestRunOnce_HourlyTradeCountTracksExecutions(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8)}}
	e, _, _ := newEngine(t, cfg, feed)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.RunOnce(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, e.accountState().TradesLastHour)

	// executions older than an hour fall out of the window
	e.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Zero(t, e.accountState().TradesLastHour)
}

func TestRunOnce_OpenPositionCapStopsNewBuys(t *testing.T) {
	cfg := testConfig()
	cfg.Risk.MaxOpenPositions = 1
	// two different symbols so the first buy does not just average up
	feed := &scriptedFeed{signals: []domain.Signal{
		{Symbol: "BTC/CAD", Action: domain.ActionBuy, Price: 50000, Confidence: 0.8},
		{Symbol: "ETH/CAD", Action: domain.ActionBuy, Price: 3000, Confidence: 0.8},
	}}
	e, _, _ := newEngine(t, cfg, feed)
	ctx := context.Background()

	res, err := e.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, res.Executed)

	res, err = e.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, res.Executed)
	assert.Equal(t, domain.ReasonOpenPositions, res.Decision.Reason)
}

func TestRunOnce_AverageEntryAcrossAdds(t *testing.T) {
	cfg := testConfig()
	feed := &scriptedFeed{signals: []domain.Signal{buy(50000, 0.8), buy(60000, 0.8)}}
	e, _, _ := newEngine(t, cfg, feed)
	ctx := context.Background()

	_, err := e.RunOnce(ctx)
	require.NoError(t, err)
	_, err = e.RunOnce(ctx)
	require.NoError(t, err)

	pos := e.positions["BTC/CAD"]
	assert.Greater(t, pos.avgEntry, 50000.0)
	assert.Less(t, pos.avgEntry, 60000.0)
}

package feed

import (
	"context"
	"math/rand"
	"sync"

	"github.com/alejandrodnm/chimera/internal/domain"
)

// RandomWalk emits synthetic trading signals over a random-walk price series.
// It stands in for a real strategy feed during paper sessions and in tests:
// the mode controller and governor care about the shape of the signals, not
// where they come from.
type RandomWalk struct {
	mu     sync.Mutex
	rng    *rand.Rand
	symbol string
	price  float64
	step   float64 // max fractional move per tick
}

// NewRandomWalk builds a feed for one symbol starting at the given price.
func NewRandomWalk(symbol string, startPrice float64, seed int64) *RandomWalk {
	return &RandomWalk{
		rng:    rand.New(rand.NewSource(seed)),
		symbol: symbol,
		price:  startPrice,
		step:   0.002,
	}
}

// Next advances the walk one tick and returns a signal at the new price.
// Direction follows the tick: an up move suggests buying, a down move selling.
// SizeHint is left at zero so the governor sizes the position itself.
func (f *RandomWalk) Next(ctx context.Context) (domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Signal{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	move := (f.rng.Float64()*2 - 1) * f.step
	f.price *= 1 + move

	action := domain.ActionBuy
	if move < 0 {
		action = domain.ActionSell
	}

	return domain.Signal{
		Symbol: f.symbol,
		Action: action,
		Price:  f.price,
		// confidence in [0.50, 0.95): some signals fall below the governor's
		// floor on purpose so rejection paths get exercised
		Confidence: 0.50 + f.rng.Float64()*0.45,
	}, nil
}

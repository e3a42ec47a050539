package ports

import (
	"context"

	"github.com/alejandrodnm/chimera/internal/domain"
)

// SignalSource produces one trade proposal per cycle. Producers are untrusted:
// the governor validates structure and enforces the confidence floor.
type SignalSource interface {
	Next(ctx context.Context) (domain.Signal, error)
}

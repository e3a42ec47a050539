package ports

import (
	"context"

	"github.com/alejandrodnm/chimera/internal/domain"
)

// Reporter consumes stats and account snapshots on a fixed cadence and emits
// a human-readable summary. Strictly read-only over what it is given.
type Reporter interface {
	Report(ctx context.Context, mode domain.Mode, stats domain.Stats, account domain.AccountState) error
}

package ports

import (
	"context"

	"github.com/alejandrodnm/chimera/internal/domain"
)

// Journal is the append-only audit sink for execution records. It is strictly
// write-mostly: nothing in the trading path reads it back, and losing it never
// affects mode or risk state.
type Journal interface {
	// Append persists one execution record.
	Append(ctx context.Context, rec domain.ExecutionRecord) error

	// Records returns the most recent records, newest first.
	Records(ctx context.Context, limit int) ([]domain.ExecutionRecord, error)

	// Close releases the underlying store.
	Close() error
}

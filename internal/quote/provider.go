package quote

import (
	"context"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// Provider resolves instrument snapshots from a market-data source.
//
// Providers may return partial snapshots (missing quote, bars, fundamentals
// or sentiment); consumers must treat partial data as a valid outcome.
// An unreachable source returns models.ErrDataUnavailable.
type Provider interface {
	// Name returns the provider identifier, e.g. "synthetic".
	Name() string

	// Snapshot resolves the current snapshot for one instrument.
	Snapshot(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error)
}

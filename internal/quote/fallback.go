package quote

import (
	"context"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/pkg/logger"
)

// FallbackProvider queries a primary source and degrades to a secondary one
// when the primary fails. The switch is explicit and logged so operators can
// tell synthetic data from live data.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
}

// NewFallbackProvider wraps primary with secondary as the degrade path.
func NewFallbackProvider(primary, secondary Provider) *FallbackProvider {
	return &FallbackProvider{primary: primary, secondary: secondary}
}

// Name returns the composite provider identifier.
func (p *FallbackProvider) Name() string {
	return p.primary.Name() + "+" + p.secondary.Name()
}

// Snapshot resolves the snapshot from the primary source, falling back to the
// secondary on any primary error except cancellation.
func (p *FallbackProvider) Snapshot(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error) {
	snapshot, err := p.primary.Snapshot(ctx, symbol)
	if err == nil {
		return snapshot, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	logger.Warn("Primary quote provider failed, using fallback",
		logger.String("symbol", symbol),
		logger.String("primary", p.primary.Name()),
		logger.String("fallback", p.secondary.Name()),
		logger.ErrorField(err),
	)
	return p.secondary.Snapshot(ctx, symbol)
}

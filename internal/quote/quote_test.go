package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

type countingProvider struct {
	calls    int
	err      error
	snapshot *models.InstrumentSnapshot
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Snapshot(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.snapshot, nil
}

func TestSyntheticProvider_Deterministic(t *testing.T) {
	provider := NewSyntheticProvider()
	ctx := context.Background()

	first, err := provider.Snapshot(ctx, "600519")
	require.NoError(t, err)
	second, err := provider.Snapshot(ctx, "600519")
	require.NoError(t, err)

	require.Len(t, first.Bars, defaultHistoryDays)
	assert.Equal(t, first.Quote.CurrentPrice, second.Quote.CurrentPrice)
	assert.Equal(t, first.Bars[0].Close, second.Bars[0].Close)
	assert.Equal(t, first.Sentiment.Overall, second.Sentiment.Overall)
}

func TestSyntheticProvider_DifferentSymbolsDiffer(t *testing.T) {
	provider := NewSyntheticProvider()
	ctx := context.Background()

	a, err := provider.Snapshot(ctx, "600519")
	require.NoError(t, err)
	b, err := provider.Snapshot(ctx, "000001")
	require.NoError(t, err)

	assert.NotEqual(t, a.Quote.CurrentPrice, b.Quote.CurrentPrice)
}

func TestSyntheticProvider_ValidBars(t *testing.T) {
	provider := NewSyntheticProvider()

	snapshot, err := provider.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)

	for i, bar := range snapshot.Bars {
		assert.NoError(t, bar.Validate(), "bar %d", i)
		assert.Greater(t, bar.Close, 0.0, "bar %d", i)
		if i > 0 {
			assert.True(t, bar.Date.After(snapshot.Bars[i-1].Date), "bar %d out of order", i)
		}
	}
	assert.Equal(t, snapshot.Bars[len(snapshot.Bars)-1].Close, snapshot.Quote.CurrentPrice)
}

func TestSyntheticProvider_RejectsEmptySymbol(t *testing.T) {
	provider := NewSyntheticProvider()

	_, err := provider.Snapshot(context.Background(), "   ")

	assert.ErrorIs(t, err, models.ErrInvalidSymbol)
}

func TestFallbackProvider_UsesSecondaryOnFailure(t *testing.T) {
	primary := &countingProvider{err: models.ErrDataUnavailable}
	secondary := NewSyntheticProvider()
	provider := NewFallbackProvider(primary, secondary)

	snapshot, err := provider.Snapshot(context.Background(), "600519")

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.NotNil(t, snapshot.Quote)
}

func TestFallbackProvider_PrimarySuccessSkipsSecondary(t *testing.T) {
	want := &models.InstrumentSnapshot{Symbol: "600519"}
	primary := &countingProvider{snapshot: want}
	provider := NewFallbackProvider(primary, NewSyntheticProvider())

	snapshot, err := provider.Snapshot(context.Background(), "600519")

	require.NoError(t, err)
	assert.Same(t, want, snapshot)
}

func TestFallbackProvider_NoFallbackOnCancellation(t *testing.T) {
	primary := &countingProvider{err: context.Canceled}
	provider := NewFallbackProvider(primary, NewSyntheticProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Snapshot(ctx, "600519")
	assert.Error(t, err)
}

func TestCachingProvider_ServesFromCacheWithinTTL(t *testing.T) {
	inner := &countingProvider{snapshot: &models.InstrumentSnapshot{Symbol: "600519"}}
	provider := NewCachingProvider(inner, time.Minute)
	ctx := context.Background()

	_, err := provider.Snapshot(ctx, "600519")
	require.NoError(t, err)
	_, err = provider.Snapshot(ctx, "600519")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachingProvider_RefetchesAfterTTL(t *testing.T) {
	inner := &countingProvider{snapshot: &models.InstrumentSnapshot{Symbol: "600519"}}
	provider := NewCachingProvider(inner, time.Minute)

	now := time.Now()
	provider.now = func() time.Time { return now }

	_, err := provider.Snapshot(context.Background(), "600519")
	require.NoError(t, err)

	provider.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = provider.Snapshot(context.Background(), "600519")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachingProvider_ErrorsAreNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("flaky")}
	provider := NewCachingProvider(inner, time.Minute)

	_, err := provider.Snapshot(context.Background(), "600519")
	require.Error(t, err)

	inner.err = nil
	inner.snapshot = &models.InstrumentSnapshot{Symbol: "600519"}
	snapshot, err := provider.Snapshot(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, "600519", snapshot.Symbol)
	assert.Equal(t, 2, inner.calls)
}

func TestCachingProvider_PerSymbolEntries(t *testing.T) {
	inner := &countingProvider{snapshot: &models.InstrumentSnapshot{}}
	provider := NewCachingProvider(inner, time.Minute)
	ctx := context.Background()

	_, _ = provider.Snapshot(ctx, "A")
	_, _ = provider.Snapshot(ctx, "B")
	_, _ = provider.Snapshot(ctx, "A")

	assert.Equal(t, 2, inner.calls)
}

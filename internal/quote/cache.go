package quote

import (
	"context"
	"sync"
	"time"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// DefaultCacheTTL bounds quote staleness during batch runs. Quotes change
// continuously, so the window is kept very short.
const DefaultCacheTTL = 3 * time.Second

type cacheEntry struct {
	snapshot *models.InstrumentSnapshot
	fetched  time.Time
}

// CachingProvider memoizes snapshots per symbol for a short TTL so batch
// analyses do not hammer the upstream source. Errors are never cached.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCachingProvider wraps inner with a per-symbol snapshot cache.
// A non-positive ttl falls back to DefaultCacheTTL.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingProvider{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Name returns the wrapped provider identifier.
func (p *CachingProvider) Name() string { return p.inner.Name() }

// Snapshot returns the cached snapshot when fresh, otherwise fetches and
// caches a new one.
func (p *CachingProvider) Snapshot(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error) {
	p.mu.RLock()
	entry, ok := p.entries[symbol]
	p.mu.RUnlock()
	if ok && p.now().Sub(entry.fetched) < p.ttl {
		return entry.snapshot, nil
	}

	snapshot, err := p.inner.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.entries[symbol] = cacheEntry{snapshot: snapshot, fetched: p.now()}
	p.mu.Unlock()
	return snapshot, nil
}

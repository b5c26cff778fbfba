package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// MemoryRecommendationStore is the in-process recommendation backend used
// for development and tests.
type MemoryRecommendationStore struct {
	mu      sync.RWMutex
	records map[string][]*models.StockRecord
}

// NewMemoryRecommendationStore creates an empty in-memory store.
func NewMemoryRecommendationStore() *MemoryRecommendationStore {
	return &MemoryRecommendationStore{records: make(map[string][]*models.StockRecord)}
}

// Save replaces the recommendation set for date.
func (s *MemoryRecommendationStore) Save(ctx context.Context, date string, records []*models.StockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[date] = append([]*models.StockRecord(nil), records...)
	return nil
}

// List returns up to limit records for date. A non-positive limit returns all.
func (s *MemoryRecommendationStore) List(ctx context.Context, date string, limit int) ([]*models.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.records[date]
	if !ok {
		return []*models.StockRecord{}, nil
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return append([]*models.StockRecord(nil), records...), nil
}

// Dates returns the dates present, sorted ascending.
func (s *MemoryRecommendationStore) Dates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.records))
	for date := range s.records {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// MemoryScreenStore is the in-process saved-screen backend.
type MemoryScreenStore struct {
	mu      sync.RWMutex
	screens map[string]*models.ScreenRecord
	order   []string
}

// NewMemoryScreenStore creates an empty in-memory screen store.
func NewMemoryScreenStore() *MemoryScreenStore {
	return &MemoryScreenStore{screens: make(map[string]*models.ScreenRecord)}
}

// Save stores a screening run, newest first in listing order.
func (s *MemoryScreenStore) Save(ctx context.Context, record *models.ScreenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.screens[record.ID]; !exists {
		s.order = append([]string{record.ID}, s.order...)
	}
	s.screens[record.ID] = record
	return nil
}

// List returns up to limit saved runs, newest first.
func (s *MemoryScreenStore) List(ctx context.Context, limit int) ([]*models.ScreenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ScreenRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.screens[id])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Get returns one saved run by id.
func (s *MemoryScreenStore) Get(ctx context.Context, id string) (*models.ScreenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.screens[id]
	if !exists {
		return nil, models.ErrRecordNotFound
	}
	return record, nil
}

// Delete removes one saved run by id.
func (s *MemoryScreenStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.screens[id]; !exists {
		return models.ErrRecordNotFound
	}
	delete(s.screens, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryWatchlistStore is the in-process watchlist backend.
type MemoryWatchlistStore struct {
	mu     sync.RWMutex
	groups map[string]*models.WatchGroup
	order  []string
}

// NewMemoryWatchlistStore creates an empty in-memory watchlist store.
func NewMemoryWatchlistStore() *MemoryWatchlistStore {
	return &MemoryWatchlistStore{groups: make(map[string]*models.WatchGroup)}
}

// SaveGroup inserts or updates a watch group.
func (s *MemoryWatchlistStore) SaveGroup(ctx context.Context, group *models.WatchGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[group.ID]; !exists {
		s.order = append(s.order, group.ID)
	}
	s.groups[group.ID] = group.Clone()
	return nil
}

// ListGroups returns all watch groups in creation order.
func (s *MemoryWatchlistStore) ListGroups(ctx context.Context) ([]*models.WatchGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.WatchGroup, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.groups[id].Clone())
	}
	return out, nil
}

// GetGroup returns one watch group by id.
func (s *MemoryWatchlistStore) GetGroup(ctx context.Context, id string) (*models.WatchGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, exists := s.groups[id]
	if !exists {
		return nil, models.ErrGroupNotFound
	}
	return group.Clone(), nil
}

// DeleteGroup removes one watch group by id.
func (s *MemoryWatchlistStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[id]; !exists {
		return models.ErrGroupNotFound
	}
	delete(s.groups, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

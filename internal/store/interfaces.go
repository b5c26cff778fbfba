package store

import (
	"context"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// RecommendationStore persists analysis-derived candidate records keyed by
// trading date (YYYY-MM-DD). Saving the same date twice replaces the set.
type RecommendationStore interface {
	Save(ctx context.Context, date string, records []*models.StockRecord) error
	List(ctx context.Context, date string, limit int) ([]*models.StockRecord, error)
}

// ScreenRecordStore persists saved screening runs.
type ScreenRecordStore interface {
	Save(ctx context.Context, record *models.ScreenRecord) error
	List(ctx context.Context, limit int) ([]*models.ScreenRecord, error)
	Get(ctx context.Context, id string) (*models.ScreenRecord, error)
	Delete(ctx context.Context, id string) error
}

// WatchlistStore persists watchlist groups and their member symbols.
type WatchlistStore interface {
	SaveGroup(ctx context.Context, group *models.WatchGroup) error
	ListGroups(ctx context.Context) ([]*models.WatchGroup, error)
	GetGroup(ctx context.Context, id string) (*models.WatchGroup, error)
	DeleteGroup(ctx context.Context, id string) error
}

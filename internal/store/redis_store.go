package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// recommendationTTL keeps daily recommendation sets around long enough for
// review without unbounded growth.
const recommendationTTL = 7 * 24 * time.Hour

// RedisRecommendationStore persists daily recommendation sets in Redis as
// one JSON value per date.
type RedisRecommendationStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRecommendationStore creates a Redis-backed recommendation store.
func NewRedisRecommendationStore(client *redis.Client) *RedisRecommendationStore {
	return &RedisRecommendationStore{client: client, prefix: "advisor:recommendations:"}
}

// Save replaces the recommendation set for date.
func (s *RedisRecommendationStore) Save(ctx context.Context, date string, records []*models.StockRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+date, payload, recommendationTTL).Err(); err != nil {
		return fmt.Errorf("save recommendations: %w", err)
	}
	return nil
}

// List returns up to limit records for date. A non-positive limit returns all.
func (s *RedisRecommendationStore) List(ctx context.Context, date string, limit int) ([]*models.StockRecord, error) {
	payload, err := s.client.Get(ctx, s.prefix+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return []*models.StockRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}

	var records []*models.StockRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// RedisScreenStore persists saved screening runs in Redis: one JSON value per
// run plus a list holding the newest-first ordering.
type RedisScreenStore struct {
	client   *redis.Client
	prefix   string
	indexKey string
}

// NewRedisScreenStore creates a Redis-backed screen store.
func NewRedisScreenStore(client *redis.Client) *RedisScreenStore {
	return &RedisScreenStore{
		client:   client,
		prefix:   "advisor:screens:",
		indexKey: "advisor:screens:index",
	}
}

// Save stores a screening run and pushes it to the front of the index.
func (s *RedisScreenStore) Save(ctx context.Context, record *models.ScreenRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal screen record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+record.ID, payload, 0)
	pipe.LRem(ctx, s.indexKey, 0, record.ID)
	pipe.LPush(ctx, s.indexKey, record.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save screen record: %w", err)
	}
	return nil
}

// List returns up to limit saved runs, newest first.
func (s *RedisScreenStore) List(ctx context.Context, limit int) ([]*models.ScreenRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.LRange(ctx, s.indexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list screen records: %w", err)
	}

	out := make([]*models.ScreenRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.Get(ctx, id)
		if errors.Is(err, models.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// Get returns one saved run by id.
func (s *RedisScreenStore) Get(ctx context.Context, id string) (*models.ScreenRecord, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get screen record: %w", err)
	}

	var record models.ScreenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("unmarshal screen record: %w", err)
	}
	return &record, nil
}

// Delete removes one saved run by id.
func (s *RedisScreenStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, s.prefix+id).Result()
	if err != nil {
		return fmt.Errorf("delete screen record: %w", err)
	}
	if deleted == 0 {
		return models.ErrRecordNotFound
	}
	if err := s.client.LRem(ctx, s.indexKey, 0, id).Err(); err != nil {
		return fmt.Errorf("delete screen record index: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/lending-risk/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and refresh or invalidate the cache;
// reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through ---

func (s *CachedStore) SaveSnapshot(ctx context.Context, snap *model.HealthSnapshot) error {
	if err := s.primary.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	// The new snapshot is the latest by definition.
	s.cache(ctx, latestKey(snap.AccountID), snap)
	return nil
}

func (s *CachedStore) PutStrategy(ctx context.Context, st *model.ReserveStrategy) error {
	if err := s.primary.PutStrategy(ctx, st); err != nil {
		return err
	}
	s.rdb.Del(ctx, strategyKey(st.ID), strategiesKey)
	return nil
}

// --- Read-through ---

func (s *CachedStore) LatestSnapshot(ctx context.Context, accountID string) (*model.HealthSnapshot, error) {
	var snap model.HealthSnapshot
	if s.lookup(ctx, latestKey(accountID), &snap) {
		return &snap, nil
	}

	latest, err := s.primary.LatestSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, latestKey(accountID), latest)
	return latest, nil
}

func (s *CachedStore) GetStrategy(ctx context.Context, id string) (*model.ReserveStrategy, error) {
	var st model.ReserveStrategy
	if s.lookup(ctx, strategyKey(id), &st) {
		return &st, nil
	}

	fetched, err := s.primary.GetStrategy(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, strategyKey(id), fetched)
	return fetched, nil
}

func (s *CachedStore) ListStrategies(ctx context.Context) ([]model.ReserveStrategy, error) {
	var strategies []model.ReserveStrategy
	if s.lookup(ctx, strategiesKey, &strategies) {
		return strategies, nil
	}

	strategies, err := s.primary.ListStrategies(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, strategiesKey, strategies)
	return strategies, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListSnapshots(ctx context.Context, accountID string, limit int) ([]model.HealthSnapshot, error) {
	return s.primary.ListSnapshots(ctx, accountID, limit)
}

// --- Cache helpers ---

func (s *CachedStore) lookup(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *CachedStore) cache(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

const strategiesKey = "strategies:all"

func latestKey(accountID string) string { return fmt.Sprintf("health:latest:%s", accountID) }
func strategyKey(id string) string      { return fmt.Sprintf("strategy:%s", id) }

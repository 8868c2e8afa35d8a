package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atmx/lending-risk/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu         sync.RWMutex
	snapshots  map[string][]model.HealthSnapshot // account → oldest first
	strategies map[string]*model.ReserveStrategy
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:  make(map[string][]model.HealthSnapshot),
		strategies: make(map[string]*model.ReserveStrategy),
	}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap *model.HealthSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snap.AccountID] = append(s.snapshots[snap.AccountID], *snap)
	return nil
}

func (s *MemoryStore) LatestSnapshot(_ context.Context, accountID string) (*model.HealthSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[accountID]
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: snapshot for account %s", ErrNotFound, accountID)
	}
	latest := history[len(history)-1]
	return &latest, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, accountID string, limit int) ([]model.HealthSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[accountID]
	limit = normalizeLimit(limit)

	result := make([]model.HealthSnapshot, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, history[i])
	}
	return result, nil
}

func (s *MemoryStore) PutStrategy(_ context.Context, st *model.ReserveStrategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to avoid external mutation.
	copy := *st
	s.strategies[st.ID] = &copy
	return nil
}

func (s *MemoryStore) GetStrategy(_ context.Context, id string) (*model.ReserveStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: strategy %s", ErrNotFound, id)
	}
	copy := *st
	return &copy, nil
}

func (s *MemoryStore) ListStrategies(_ context.Context) ([]model.ReserveStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.ReserveStrategy, 0, len(s.strategies))
	for _, st := range s.strategies {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Symbol != result[j].Symbol {
			return result[i].Symbol < result[j].Symbol
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

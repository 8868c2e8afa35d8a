// Package store defines the persistence interface for the risk engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/atmx/lending-risk/internal/model"
)

// ErrNotFound is returned when a snapshot or strategy does not exist.
var ErrNotFound = errors.New("store: not found")

// DefaultHistoryLimit caps ListSnapshots when the caller passes no limit.
const DefaultHistoryLimit = 100

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Health snapshots (append-only) ---

	// SaveSnapshot appends a health observation.
	SaveSnapshot(ctx context.Context, snap *model.HealthSnapshot) error

	// LatestSnapshot returns the most recent observation for an account.
	LatestSnapshot(ctx context.Context, accountID string) (*model.HealthSnapshot, error)

	// ListSnapshots returns up to limit observations, newest first.
	ListSnapshots(ctx context.Context, accountID string, limit int) ([]model.HealthSnapshot, error)

	// --- Reserve strategies ---

	// PutStrategy inserts or replaces a strategy by ID.
	PutStrategy(ctx context.Context, s *model.ReserveStrategy) error

	// GetStrategy retrieves a strategy by ID.
	GetStrategy(ctx context.Context, id string) (*model.ReserveStrategy, error)

	// ListStrategies returns all strategies ordered by symbol.
	ListStrategies(ctx context.Context) ([]model.ReserveStrategy, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultHistoryLimit {
		return DefaultHistoryLimit
	}
	return limit
}

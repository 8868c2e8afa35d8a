// Package monitor records health factor observations for accounts, compares
// each against the previous one, and pushes alerts to WebSocket clients.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/lending-risk/internal/metrics"
	"github.com/atmx/lending-risk/internal/model"
	"github.com/atmx/lending-risk/internal/risk"
	"github.com/atmx/lending-risk/internal/store"
)

// healthFactorPlaces is the precision kept for stored health factors.
const healthFactorPlaces = 8

var ErrInvalidObservation = errors.New("monitor: invalid observation")

// Broadcaster delivers alerts to subscribers. *WSHub implements it.
type Broadcaster interface {
	Broadcast(AlertMessage)
}

// Observation is a point-in-time view of an account's position.
type Observation struct {
	AccountID               string          `json:"account_id"`
	CollateralUSD           decimal.Decimal `json:"collateral_usd"`
	DebtUSD                 decimal.Decimal `json:"debt_usd"`
	LiquidationThresholdBps int64           `json:"liquidation_threshold_bps"`
}

// Result is the outcome of one observation.
type Result struct {
	Snapshot *model.HealthSnapshot  `json:"snapshot"`
	Health   risk.HealthFactorStatus `json:"health"`
	risk.MonitorResult
}

// Monitor persists observations and raises alerts. A nil Broadcaster
// disables alert fan-out.
type Monitor struct {
	store store.Store
	hub   Broadcaster
	now   func() time.Time

	// Observations for one account run one at a time so each compares
	// against the snapshot saved before it.
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	sync.Mutex
	refs int
}

// New creates a Monitor backed by s.
func New(s store.Store, hub Broadcaster) *Monitor {
	return &Monitor{
		store: s,
		hub:   hub,
		now:   func() time.Time { return time.Now().UTC() },
		locks: make(map[string]*accountLock),
	}
}

// lockAccount serialises work on one account and returns the unlock func.
// Entries are dropped once no observation holds or waits on them.
func (m *Monitor) lockAccount(accountID string) func() {
	m.mu.Lock()
	l, ok := m.locks[accountID]
	if !ok {
		l = &accountLock{}
		m.locks[accountID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, accountID)
		}
		m.mu.Unlock()
	}
}

// Observe classifies obs, compares it against the account's latest stored
// snapshot, appends a new snapshot, and broadcasts any alert.
func (m *Monitor) Observe(ctx context.Context, obs Observation) (*Result, error) {
	if err := obs.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer metrics.ObserveSince("monitor_observe", start)

	hf := risk.HealthFactor(
		obs.CollateralUSD.InexactFloat64(),
		obs.DebtUSD.InexactFloat64(),
		float64(obs.LiquidationThresholdBps),
	)

	unlock := m.lockAccount(obs.AccountID)
	defer unlock()

	previous, err := m.previous(ctx, obs.AccountID)
	if err != nil {
		return nil, err
	}

	health := risk.AnalyzeHealthFactor(hf)
	mon := risk.MonitorHealthFactor(hf, previous)

	snap := &model.HealthSnapshot{
		ID:            uuid.NewString(),
		AccountID:     obs.AccountID,
		Status:        string(health.Status),
		AlertLevel:    string(mon.AlertLevel),
		Trend:         string(mon.Trend),
		CollateralUSD: obs.CollateralUSD,
		DebtUSD:       obs.DebtUSD,
		RecordedAt:    m.now(),
	}
	if !math.IsInf(hf, 1) {
		snap.HealthFactor = decimal.NewNullDecimal(decimal.NewFromFloat(hf).Round(healthFactorPlaces))
	}

	if err := m.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	metrics.AssessmentsTotal.WithLabelValues(string(health.Status)).Inc()
	if mon.Alert {
		metrics.AlertsTotal.WithLabelValues(string(mon.AlertLevel)).Inc()
		slog.Warn("health factor alert",
			"account_id", obs.AccountID,
			"level", mon.AlertLevel,
			"health_factor", hf,
			"trend", mon.Trend,
		)
		if m.hub != nil {
			m.hub.Broadcast(AlertMessage{
				Type:         "health_alert",
				AccountID:    obs.AccountID,
				HealthFactor: formatHealthFactor(snap.HealthFactor),
				Status:       snap.Status,
				Level:        snap.AlertLevel,
				Message:      mon.Message,
				Trend:        snap.Trend,
				Timestamp:    snap.RecordedAt,
			})
		}
	}

	return &Result{Snapshot: snap, Health: health, MonitorResult: mon}, nil
}

// History returns up to limit snapshots for an account, newest first.
func (m *Monitor) History(ctx context.Context, accountID string, limit int) ([]model.HealthSnapshot, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: account_id is required", ErrInvalidObservation)
	}
	return m.store.ListSnapshots(ctx, accountID, limit)
}

// previous returns the last stored health factor for an account, +Inf for a
// debt-free snapshot, or nil when the account has never been observed.
func (m *Monitor) previous(ctx context.Context, accountID string) (*float64, error) {
	last, err := m.store.LatestSnapshot(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}
	v := math.Inf(1)
	if last.HealthFactor.Valid {
		v = last.HealthFactor.Decimal.InexactFloat64()
	}
	return &v, nil
}

func (o Observation) validate() error {
	switch {
	case strings.TrimSpace(o.AccountID) == "":
		return fmt.Errorf("%w: account_id is required", ErrInvalidObservation)
	case o.CollateralUSD.IsNegative() || o.DebtUSD.IsNegative():
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidObservation)
	case o.LiquidationThresholdBps <= 0 || o.LiquidationThresholdBps > 10000:
		return fmt.Errorf("%w: liquidation_threshold_bps must be in (0, 10000]", ErrInvalidObservation)
	}
	return nil
}

func formatHealthFactor(hf decimal.NullDecimal) string {
	if !hf.Valid {
		return "Infinity"
	}
	return hf.Decimal.StringFixed(4)
}

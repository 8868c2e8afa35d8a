package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atmx/lending-risk/internal/model"
)

// schema is applied by EnsureSchema. Ray values need 78 digits to hold any
// uint256.
const schema = `
CREATE TABLE IF NOT EXISTS health_snapshots (
	id             TEXT PRIMARY KEY,
	account_id     TEXT NOT NULL,
	health_factor  NUMERIC,
	status         TEXT NOT NULL,
	alert_level    TEXT NOT NULL,
	trend          TEXT NOT NULL,
	collateral_usd NUMERIC NOT NULL,
	debt_usd       NUMERIC NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS health_snapshots_account_idx
	ON health_snapshots (account_id, recorded_at DESC);

CREATE TABLE IF NOT EXISTS reserve_strategies (
	id                        TEXT PRIMARY KEY,
	asset                     TEXT NOT NULL,
	symbol                    TEXT NOT NULL,
	base_variable_borrow_rate NUMERIC(78,0) NOT NULL,
	variable_rate_slope1      NUMERIC(78,0) NOT NULL,
	variable_rate_slope2      NUMERIC(78,0) NOT NULL,
	base_stable_borrow_rate   NUMERIC(78,0) NOT NULL,
	stable_rate_slope1        NUMERIC(78,0) NOT NULL,
	stable_rate_slope2        NUMERIC(78,0) NOT NULL,
	optimal_usage_ratio       NUMERIC(78,0) NOT NULL,
	reserve_factor            NUMERIC NOT NULL,
	updated_at                TIMESTAMPTZ NOT NULL
);`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// USD values and ray integers are stored as NUMERIC for exact precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.HealthSnapshot) error {
	var hf *string
	if snap.HealthFactor.Valid {
		v := snap.HealthFactor.Decimal.String()
		hf = &v
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO health_snapshots (id, account_id, health_factor, status, alert_level, trend, collateral_usd, debt_usd, recorded_at)
		 VALUES ($1, $2, $3::NUMERIC, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9)`,
		snap.ID, snap.AccountID, hf, snap.Status, snap.AlertLevel, snap.Trend,
		snap.CollateralUSD.String(), snap.DebtUSD.String(), snap.RecordedAt,
	)
	return err
}

const snapshotColumns = `id, account_id, health_factor::TEXT, status, alert_level, trend,
		        collateral_usd::TEXT, debt_usd::TEXT, recorded_at`

func (s *PostgresStore) LatestSnapshot(ctx context.Context, accountID string) (*model.HealthSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+snapshotColumns+`
		 FROM health_snapshots WHERE account_id = $1
		 ORDER BY recorded_at DESC LIMIT 1`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot %s: %w", accountID, err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: snapshot for account %s", ErrNotFound, accountID)
	}
	return &snaps[0], nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, accountID string, limit int) ([]model.HealthSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+snapshotColumns+`
		 FROM health_snapshots WHERE account_id = $1
		 ORDER BY recorded_at DESC LIMIT $2`, accountID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (s *PostgresStore) PutStrategy(ctx context.Context, st *model.ReserveStrategy) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reserve_strategies (id, asset, symbol,
		        base_variable_borrow_rate, variable_rate_slope1, variable_rate_slope2,
		        base_stable_borrow_rate, stable_rate_slope1, stable_rate_slope2,
		        optimal_usage_ratio, reserve_factor, updated_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC,
		         $10::NUMERIC, $11::NUMERIC, $12)
		 ON CONFLICT (id) DO UPDATE SET
		        asset = EXCLUDED.asset, symbol = EXCLUDED.symbol,
		        base_variable_borrow_rate = EXCLUDED.base_variable_borrow_rate,
		        variable_rate_slope1 = EXCLUDED.variable_rate_slope1,
		        variable_rate_slope2 = EXCLUDED.variable_rate_slope2,
		        base_stable_borrow_rate = EXCLUDED.base_stable_borrow_rate,
		        stable_rate_slope1 = EXCLUDED.stable_rate_slope1,
		        stable_rate_slope2 = EXCLUDED.stable_rate_slope2,
		        optimal_usage_ratio = EXCLUDED.optimal_usage_ratio,
		        reserve_factor = EXCLUDED.reserve_factor,
		        updated_at = EXCLUDED.updated_at`,
		st.ID, st.Asset, st.Symbol,
		st.BaseVariableBorrowRate, st.VariableRateSlope1, st.VariableRateSlope2,
		st.BaseStableBorrowRate, st.StableRateSlope1, st.StableRateSlope2,
		st.OptimalUsageRatio, st.ReserveFactor.String(), st.UpdatedAt,
	)
	return err
}

const strategyColumns = `id, asset, symbol,
		        base_variable_borrow_rate::TEXT, variable_rate_slope1::TEXT, variable_rate_slope2::TEXT,
		        base_stable_borrow_rate::TEXT, stable_rate_slope1::TEXT, stable_rate_slope2::TEXT,
		        optimal_usage_ratio::TEXT, reserve_factor::TEXT, updated_at`

func (s *PostgresStore) GetStrategy(ctx context.Context, id string) (*model.ReserveStrategy, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+strategyColumns+` FROM reserve_strategies WHERE id = $1`, id)
	st, err := scanStrategy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: strategy %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get strategy %s: %w", id, err)
	}
	return st, nil
}

func (s *PostgresStore) ListStrategies(ctx context.Context) ([]model.ReserveStrategy, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+strategyColumns+` FROM reserve_strategies ORDER BY symbol, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strategies []model.ReserveStrategy
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, *st)
	}
	return strategies, rows.Err()
}

// pgxRows is the subset of pgx.Rows used by the scanners.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshots(rows pgxRows) ([]model.HealthSnapshot, error) {
	var snaps []model.HealthSnapshot
	for rows.Next() {
		var snap model.HealthSnapshot
		var hf *string
		var collateralS, debtS string

		if err := rows.Scan(&snap.ID, &snap.AccountID, &hf, &snap.Status, &snap.AlertLevel, &snap.Trend,
			&collateralS, &debtS, &snap.RecordedAt); err != nil {
			return nil, err
		}

		if hf != nil {
			v, err := decimal.NewFromString(*hf)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s health factor: %w", snap.ID, err)
			}
			snap.HealthFactor = decimal.NewNullDecimal(v)
		}
		snap.CollateralUSD, _ = decimal.NewFromString(collateralS)
		snap.DebtUSD, _ = decimal.NewFromString(debtS)

		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func scanStrategy(row rowScanner) (*model.ReserveStrategy, error) {
	var st model.ReserveStrategy
	var reserveFactor string
	if err := row.Scan(&st.ID, &st.Asset, &st.Symbol,
		&st.BaseVariableBorrowRate, &st.VariableRateSlope1, &st.VariableRateSlope2,
		&st.BaseStableBorrowRate, &st.StableRateSlope1, &st.StableRateSlope2,
		&st.OptimalUsageRatio, &reserveFactor, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.ReserveFactor, _ = decimal.NewFromString(reserveFactor)
	return &st, nil
}

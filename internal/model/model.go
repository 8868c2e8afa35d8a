// Package model defines the persisted types shared across the risk engine.
// USD amounts use shopspring/decimal; on-chain integers (wad/ray) travel as
// base-10 strings so no precision is lost in JSON or SQL.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HealthSnapshot is one observation of an account's health factor, written
// every time the account is monitored. Snapshots are append-only.
type HealthSnapshot struct {
	ID            string              `json:"id" db:"id"`
	AccountID     string              `json:"account_id" db:"account_id"`
	HealthFactor  decimal.NullDecimal `json:"health_factor" db:"health_factor"` // null = no debt
	Status        string              `json:"status" db:"status"`               // safe, warning, danger, liquidatable
	AlertLevel    string              `json:"alert_level" db:"alert_level"`
	Trend         string              `json:"trend" db:"trend"`
	CollateralUSD decimal.Decimal     `json:"collateral_usd" db:"collateral_usd"`
	DebtUSD       decimal.Decimal     `json:"debt_usd" db:"debt_usd"`
	RecordedAt    time.Time           `json:"recorded_at" db:"recorded_at"`
}

// ReserveStrategy is the registered interest rate strategy of a reserve.
// Rate fields are ray-scaled integers (1e27 = 100%).
type ReserveStrategy struct {
	ID                     string          `json:"id" db:"id"`
	Asset                  string          `json:"asset" db:"asset"` // checksummed address
	Symbol                 string          `json:"symbol" db:"symbol"`
	BaseVariableBorrowRate string          `json:"base_variable_borrow_rate" db:"base_variable_borrow_rate"`
	VariableRateSlope1     string          `json:"variable_rate_slope1" db:"variable_rate_slope1"`
	VariableRateSlope2     string          `json:"variable_rate_slope2" db:"variable_rate_slope2"`
	BaseStableBorrowRate   string          `json:"base_stable_borrow_rate" db:"base_stable_borrow_rate"`
	StableRateSlope1       string          `json:"stable_rate_slope1" db:"stable_rate_slope1"`
	StableRateSlope2       string          `json:"stable_rate_slope2" db:"stable_rate_slope2"`
	OptimalUsageRatio      string          `json:"optimal_usage_ratio" db:"optimal_usage_ratio"`
	ReserveFactor          decimal.Decimal `json:"reserve_factor" db:"reserve_factor"` // percent
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

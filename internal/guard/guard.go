// Package guard rejects borrows and withdrawals that would leave a position
// too close to liquidation or above its reserve's maximum loan-to-value.
package guard

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/lending-risk/internal/risk"
)

var (
	// ErrHealthFactorTooLow is returned when the simulated health factor
	// after the action is below the guard's minimum.
	ErrHealthFactorTooLow = errors.New("guard: resulting health factor below minimum")

	// ErrLTVExceeded is returned when the resulting debt exceeds the
	// reserve's maximum loan-to-value.
	ErrLTVExceeded = errors.New("guard: resulting loan-to-value above maximum")

	ErrInvalidAmount = errors.New("guard: amount must be positive")
)

var tenThousand = decimal.NewFromInt(10000)

// Position is the current state of an account, in USD and basis points.
type Position struct {
	CollateralUSD           decimal.Decimal `json:"collateral_usd"`
	DebtUSD                 decimal.Decimal `json:"debt_usd"`
	LiquidationThresholdBps int64           `json:"liquidation_threshold_bps"`
	MaxLTVBps               int64           `json:"max_ltv_bps"` // 0 disables the LTV check
}

// BorrowGuard enforces a minimum post-action health factor and the
// reserve's maximum LTV.
type BorrowGuard struct {
	// MinHealthFactor is the lowest health factor an action may leave.
	MinHealthFactor float64
}

// NewBorrowGuard returns a guard with the given minimum. Values at or below
// the liquidation point fall back to risk.WarningThreshold.
func NewBorrowGuard(minHealthFactor float64) *BorrowGuard {
	if minHealthFactor <= risk.LiquidationThreshold {
		minHealthFactor = risk.WarningThreshold
	}
	return &BorrowGuard{MinHealthFactor: minHealthFactor}
}

// CheckBorrow validates borrowing amountUSD more against pos. It returns the
// simulated status alongside any violation.
func (g *BorrowGuard) CheckBorrow(pos Position, amountUSD decimal.Decimal) (risk.HealthFactorStatus, error) {
	if !amountUSD.IsPositive() {
		return risk.HealthFactorStatus{}, ErrInvalidAmount
	}
	collateral := pos.CollateralUSD.InexactFloat64()
	debt := pos.DebtUSD.InexactFloat64()
	status := risk.SimulateBorrow(collateral, debt, amountUSD.InexactFloat64(), float64(pos.LiquidationThresholdBps))

	// 1. LTV against the reserve maximum, in exact decimal.
	newDebt := pos.DebtUSD.Add(amountUSD)
	if pos.MaxLTVBps > 0 {
		maxDebt := pos.CollateralUSD.Mul(decimal.NewFromInt(pos.MaxLTVBps)).Div(tenThousand)
		if newDebt.GreaterThan(maxDebt) {
			return status, fmt.Errorf("%w: debt %s exceeds %s", ErrLTVExceeded, newDebt.StringFixed(2), maxDebt.StringFixed(2))
		}
	}

	// 2. Health factor floor.
	if status.Value < g.MinHealthFactor {
		return status, fmt.Errorf("%w: %.4f < %.2f", ErrHealthFactorTooLow, status.Value, g.MinHealthFactor)
	}
	return status, nil
}

// CheckWithdrawal validates withdrawing amountUSD of collateral from pos.
func (g *BorrowGuard) CheckWithdrawal(pos Position, amountUSD decimal.Decimal) (risk.HealthFactorStatus, error) {
	if !amountUSD.IsPositive() {
		return risk.HealthFactorStatus{}, ErrInvalidAmount
	}
	status := risk.SimulateWithdrawal(
		pos.CollateralUSD.InexactFloat64(),
		pos.DebtUSD.InexactFloat64(),
		amountUSD.InexactFloat64(),
		float64(pos.LiquidationThresholdBps),
	)

	if pos.MaxLTVBps > 0 && pos.DebtUSD.IsPositive() {
		remaining := decimal.Max(decimal.Zero, pos.CollateralUSD.Sub(amountUSD))
		maxDebt := remaining.Mul(decimal.NewFromInt(pos.MaxLTVBps)).Div(tenThousand)
		if pos.DebtUSD.GreaterThan(maxDebt) {
			return status, fmt.Errorf("%w: debt %s exceeds %s", ErrLTVExceeded, pos.DebtUSD.StringFixed(2), maxDebt.StringFixed(2))
		}
	}

	if status.Value < g.MinHealthFactor {
		return status, fmt.Errorf("%w: %.4f < %.2f", ErrHealthFactorTooLow, status.Value, g.MinHealthFactor)
	}
	return status, nil
}

// Package rates implements the kinked dual-slope interest rate model of a
// lending reserve: borrow and supply rates as a function of utilisation,
// rate curve projections and interest accrual.
//
// Rates are ray-scaled annual rates (1e27 = 100%). Utilisation is a
// percentage in [0, 100] and is rounded to basis points before use, so two
// utilisations within half a basis point produce identical rates.
package rates

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/atmx/lending-risk/internal/fixedpoint"
)

var ErrInvalidParams = errors.New("rates: invalid interest rate parameters")

// InterestRateParams are the strategy parameters of a reserve, all ray-scaled.
type InterestRateParams struct {
	BaseVariableBorrowRate *big.Int `json:"base_variable_borrow_rate"`
	VariableRateSlope1     *big.Int `json:"variable_rate_slope1"`
	VariableRateSlope2     *big.Int `json:"variable_rate_slope2"`
	BaseStableBorrowRate   *big.Int `json:"base_stable_borrow_rate"`
	StableRateSlope1       *big.Int `json:"stable_rate_slope1"`
	StableRateSlope2       *big.Int `json:"stable_rate_slope2"`
	OptimalUsageRatio      *big.Int `json:"optimal_usage_ratio"`
}

// MaxExcessUsageRatio is the utilisation range above the kink: RAY - optimal.
func (p InterestRateParams) MaxExcessUsageRatio() *big.Int {
	return new(big.Int).Sub(fixedpoint.Ray(), orZero(p.OptimalUsageRatio))
}

// Validate reports missing or negative parameters and an optimal usage
// ratio outside (0, RAY].
func (p InterestRateParams) Validate() error {
	fields := []struct {
		name string
		v    *big.Int
	}{
		{"base_variable_borrow_rate", p.BaseVariableBorrowRate},
		{"variable_rate_slope1", p.VariableRateSlope1},
		{"variable_rate_slope2", p.VariableRateSlope2},
		{"base_stable_borrow_rate", p.BaseStableBorrowRate},
		{"stable_rate_slope1", p.StableRateSlope1},
		{"stable_rate_slope2", p.StableRateSlope2},
		{"optimal_usage_ratio", p.OptimalUsageRatio},
	}
	for _, f := range fields {
		if f.v == nil {
			return fmt.Errorf("%w: %s is required", ErrInvalidParams, f.name)
		}
		if f.v.Sign() < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidParams, f.name)
		}
	}
	if optimalBps(p.OptimalUsageRatio).Sign() == 0 {
		return fmt.Errorf("%w: optimal_usage_ratio must be at least one basis point", ErrInvalidParams)
	}
	if p.OptimalUsageRatio.Cmp(fixedpoint.Ray()) > 0 {
		return fmt.Errorf("%w: optimal_usage_ratio exceeds 100%%", ErrInvalidParams)
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

package rates

import (
	"iter"
	"slices"

	"github.com/atmx/lending-risk/internal/fixedpoint"
)

// DefaultProjectionSteps is the number of intervals in a projected curve.
const DefaultProjectionSteps = 20

// syntheticDebt is the equal variable/stable split assumed by projections.
var syntheticDebt = fixedpoint.Wad()

// RateProjection is one point of a projected curve. Rates are whole
// percentages as produced by fixedpoint.RayToPercent.
type RateProjection struct {
	UtilizationRate    float64 `json:"utilization_rate"`
	LiquidityRate      float64 `json:"liquidity_rate"`
	VariableBorrowRate float64 `json:"variable_borrow_rate"`
	StableBorrowRate   float64 `json:"stable_borrow_rate"`
}

// RateCurve yields steps+1 projections at utilisation i/steps*100 for
// i = 0..steps. Each iteration recomputes from the parameters, so the
// sequence can be ranged over any number of times. steps <= 0 selects
// DefaultProjectionSteps.
func RateCurve(p InterestRateParams, reserveFactor float64, steps int) iter.Seq[RateProjection] {
	if steps <= 0 {
		steps = DefaultProjectionSteps
	}
	return func(yield func(RateProjection) bool) {
		for i := 0; i <= steps; i++ {
			u := float64(i) / float64(steps) * 100
			if !yield(projectAt(p, reserveFactor, u)) {
				return
			}
		}
	}
}

// ProjectInterestRates collects RateCurve into a slice.
func ProjectInterestRates(p InterestRateParams, reserveFactor float64, steps int) []RateProjection {
	return slices.Collect(RateCurve(p, reserveFactor, steps))
}

// OptimalSupply is the utilisation at which the projected supply rate peaks.
type OptimalSupply struct {
	UtilizationRate float64 `json:"utilization_rate"`
	SupplyRate      float64 `json:"supply_rate"`
}

// FindOptimalSupplyUtilization scans a 101-point curve and returns the
// first point with the highest supply rate. A curve that never pays
// anything reports 0% utilisation.
func FindOptimalSupplyUtilization(p InterestRateParams, reserveFactor float64) OptimalSupply {
	var best OptimalSupply
	for proj := range RateCurve(p, reserveFactor, 100) {
		if proj.LiquidityRate > best.SupplyRate {
			best = OptimalSupply{UtilizationRate: proj.UtilizationRate, SupplyRate: proj.LiquidityRate}
		}
	}
	return best
}

func projectAt(p InterestRateParams, reserveFactor, u float64) RateProjection {
	variable := CalculateVariableBorrowRate(u, p)
	stable := CalculateStableBorrowRate(u, p, nil)
	liquidity := CalculateLiquidityRate(variable, stable, syntheticDebt, syntheticDebt, u, reserveFactor)
	return RateProjection{
		UtilizationRate:    u,
		LiquidityRate:      fixedpoint.RayToPercent(liquidity),
		VariableBorrowRate: fixedpoint.RayToPercent(variable),
		StableBorrowRate:   fixedpoint.RayToPercent(stable),
	}
}

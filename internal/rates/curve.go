package rates

import (
	"math"
	"math/big"

	"github.com/atmx/lending-risk/internal/fixedpoint"
)

var (
	ray       = fixedpoint.Ray()
	bpsFactor = fixedpoint.PercentageFactorInt()
	rayPerBps = new(big.Int).Quo(fixedpoint.Ray(), fixedpoint.PercentageFactorInt())
)

// CalculateUtilizationRate returns borrows / (borrows + liquidity) as a
// percentage with basis-point precision. An empty reserve is 0% utilised.
func CalculateUtilizationRate(totalBorrows, availableLiquidity *big.Int) float64 {
	b, l := orZero(totalBorrows), orZero(availableLiquidity)
	total := new(big.Int).Add(b, l)
	if total.Sign() == 0 {
		return 0
	}
	bps := new(big.Int).Mul(b, bpsFactor)
	bps.Quo(bps, total)
	f, _ := new(big.Float).SetInt(bps).Float64()
	return f / 100
}

// CalculateVariableBorrowRate evaluates the variable curve at utilisation u.
//
//	u <= optimal: base + slope1 * u/optimal
//	u >  optimal: base + slope1 + slope2 * (u-optimal)/(100%-optimal)
func CalculateVariableBorrowRate(u float64, p InterestRateParams) *big.Int {
	return kinkedRate(u, p.OptimalUsageRatio, p.BaseVariableBorrowRate, p.VariableRateSlope1, p.VariableRateSlope2)
}

// CalculateStableBorrowRate evaluates the stable curve at utilisation u and
// floors the result at averageStableRate (nil means no floor).
func CalculateStableBorrowRate(u float64, p InterestRateParams, averageStableRate *big.Int) *big.Int {
	rate := kinkedRate(u, p.OptimalUsageRatio, p.BaseStableBorrowRate, p.StableRateSlope1, p.StableRateSlope2)
	if averageStableRate != nil && rate.Cmp(averageStableRate) < 0 {
		return new(big.Int).Set(averageStableRate)
	}
	return rate
}

// CalculateLiquidityRate returns the supply rate: the debt-weighted average
// borrow rate scaled by utilisation and by the share not kept as reserve
// factor (reserveFactor in percent, 10 = 10%). No debt earns nothing.
func CalculateLiquidityRate(variableRate, stableRate, variableDebt, stableDebt *big.Int, u, reserveFactor float64) *big.Int {
	vd, sd := orZero(variableDebt), orZero(stableDebt)
	totalDebt := new(big.Int).Add(vd, sd)
	if totalDebt.Sign() == 0 {
		return new(big.Int)
	}

	variableWeight := new(big.Int).Mul(vd, ray)
	variableWeight.Quo(variableWeight, totalDebt)
	stableWeight := new(big.Int).Mul(sd, ray)
	stableWeight.Quo(stableWeight, totalDebt)

	avg := fixedpoint.RayMul(orZero(variableRate), variableWeight)
	avg.Add(avg, fixedpoint.RayMul(orZero(stableRate), stableWeight))

	utilizationRay := percentToRayBps(u)
	retainedRay := percentToRayBps(100 - reserveFactor)

	return fixedpoint.RayMul(fixedpoint.RayMul(avg, utilizationRay), retainedRay)
}

// InterestRates are the ray rates of a reserve at one point in time.
type InterestRates struct {
	UtilizationRate    float64  `json:"utilization_rate"`
	VariableBorrowRate *big.Int `json:"variable_borrow_rate"`
	StableBorrowRate   *big.Int `json:"stable_borrow_rate"`
	LiquidityRate      *big.Int `json:"liquidity_rate"`
}

// ReserveState is the debt and liquidity of a reserve.
type ReserveState struct {
	TotalVariableDebt  *big.Int
	TotalStableDebt    *big.Int
	AvailableLiquidity *big.Int
	AverageStableRate  *big.Int
}

// CurrentRates evaluates the curve for a reserve's actual debt composition.
func CurrentRates(p InterestRateParams, s ReserveState, reserveFactor float64) InterestRates {
	borrows := new(big.Int).Add(orZero(s.TotalVariableDebt), orZero(s.TotalStableDebt))
	u := CalculateUtilizationRate(borrows, s.AvailableLiquidity)

	variable := CalculateVariableBorrowRate(u, p)
	stable := CalculateStableBorrowRate(u, p, s.AverageStableRate)
	return InterestRates{
		UtilizationRate:    u,
		VariableBorrowRate: variable,
		StableBorrowRate:   stable,
		LiquidityRate:      CalculateLiquidityRate(variable, stable, s.TotalVariableDebt, s.TotalStableDebt, u, reserveFactor),
	}
}

func kinkedRate(u float64, optimalRatio, base, slope1, slope2 *big.Int) *big.Int {
	util := utilizationBps(u)
	optimal := optimalBps(optimalRatio)
	rate := new(big.Int).Set(orZero(base))

	if util.Cmp(optimal) <= 0 {
		if optimal.Sign() == 0 {
			return rate
		}
		ratio := new(big.Int).Mul(util, ray)
		ratio.Quo(ratio, optimal)
		return rate.Add(rate, fixedpoint.RayMul(orZero(slope1), ratio))
	}

	excess := new(big.Int).Sub(util, optimal)
	maxExcess := new(big.Int).Sub(bpsFactor, optimal)
	ratio := new(big.Int).Mul(excess, ray)
	ratio.Quo(ratio, maxExcess)

	rate.Add(rate, orZero(slope1))
	return rate.Add(rate, fixedpoint.RayMul(orZero(slope2), ratio))
}

// utilizationBps clamps u to [0, 100] and rounds it to basis points.
func utilizationBps(u float64) *big.Int {
	if math.IsNaN(u) || u < 0 {
		u = 0
	}
	if u > 100 {
		u = 100
	}
	return big.NewInt(int64(math.Round(u * 100)))
}

func optimalBps(optimalRatio *big.Int) *big.Int {
	o := new(big.Int).Mul(orZero(optimalRatio), bpsFactor)
	return o.Quo(o, ray)
}

// percentToRayBps converts a percentage to ray at basis-point precision.
func percentToRayBps(percent float64) *big.Int {
	bps := big.NewInt(int64(math.Round(percent * 100)))
	return bps.Mul(bps, rayPerBps)
}

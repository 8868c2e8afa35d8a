package fixedpoint

import (
	"math"
	"math/big"
)

// CalculateHealthFactor returns the wad-scaled health factor
//
//	HF = collateral * liquidationThreshold * WAD / (debt * 10000)
//
// where liquidationThreshold is in basis points. A position without debt
// reports MaxHealthFactor.
func CalculateHealthFactor(collateral, debt, thresholdBps *big.Int) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return MaxHealthFactor()
	}
	if collateral == nil || thresholdBps == nil {
		return new(big.Int)
	}
	num := new(big.Int).Mul(collateral, thresholdBps)
	num.Mul(num, wad)
	den := new(big.Int).Mul(debt, pctFactor)
	return num.Quo(num, den)
}

// CalculateLTV returns debt/collateral as a percentage with two decimals of
// precision. Zero collateral yields 0.
func CalculateLTV(debt, collateral *big.Int) float64 {
	if collateral == nil || collateral.Sign() == 0 || debt == nil {
		return 0
	}
	bps := new(big.Int).Mul(debt, pctFactor)
	bps.Quo(bps, collateral)
	return bigToFloat(bps) / 100
}

// CalculateAvailableBorrows returns how much more can be borrowed against
// the collateral at the given loan-to-value (bps), never negative.
func CalculateAvailableBorrows(collateral, debt, ltvBps *big.Int) *big.Int {
	maxBorrow := PercentOf(collateral, ltvBps)
	if debt == nil {
		return maxBorrow
	}
	if maxBorrow.Cmp(debt) <= 0 {
		return new(big.Int)
	}
	return maxBorrow.Sub(maxBorrow, debt)
}

// CalculateLiquidationPrice scales the current asset price by the inverse of
// the wad health factor and the liquidation threshold (percent):
//
//	price * WAD * 10000 / (HF * round(threshold*100))
func CalculateLiquidationPrice(price, healthFactor *big.Int, thresholdPercent float64) (*big.Int, error) {
	threshold := big.NewInt(int64(math.Round(thresholdPercent * 100)))
	if healthFactor == nil || healthFactor.Sign() == 0 || threshold.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if price == nil {
		return new(big.Int), nil
	}
	num := new(big.Int).Mul(price, wad)
	num.Mul(num, pctFactor)
	den := new(big.Int).Mul(healthFactor, threshold)
	return num.Quo(num, den), nil
}

package risk

import "math"

// Default targets used when a caller passes a non-positive target health factor.
const (
	DefaultRepairTarget = SafeThreshold
	DefaultSafetyTarget = WarningThreshold
)

func target(t, fallback float64) float64 {
	if t <= 0 {
		return fallback
	}
	return t
}

// CalculateCollateralNeeded returns the extra collateral (USD) that brings
// the position up to targetHF (default 2.0).
func CalculateCollateralNeeded(collateralUSD, debtUSD, thresholdBps, targetHF float64) float64 {
	if debtUSD == 0 {
		return 0
	}
	targetCollateral := target(targetHF, DefaultRepairTarget) * debtUSD / (thresholdBps / 10000)
	return math.Max(0, targetCollateral-collateralUSD)
}

// CalculateDebtToRepay returns the debt (USD) to repay to reach targetHF
// (default 2.0).
func CalculateDebtToRepay(collateralUSD, debtUSD, thresholdBps, targetHF float64) float64 {
	if debtUSD == 0 {
		return 0
	}
	targetDebt := collateralUSD * (thresholdBps / 10000) / target(targetHF, DefaultRepairTarget)
	return math.Max(0, debtUSD-targetDebt)
}

// CalculateMaxSafeBorrow returns how much more can be borrowed while keeping
// the health factor at or above targetHF (default 1.5).
func CalculateMaxSafeBorrow(collateralUSD, debtUSD, thresholdBps, targetHF float64) float64 {
	maxDebt := collateralUSD * (thresholdBps / 10000) / target(targetHF, DefaultSafetyTarget)
	return math.Max(0, maxDebt-debtUSD)
}

// CalculateMaxSafeWithdrawal returns how much collateral can be withdrawn
// while keeping the health factor at or above targetHF (default 1.5). With
// no debt the whole collateral is withdrawable.
func CalculateMaxSafeWithdrawal(collateralUSD, debtUSD, thresholdBps, targetHF float64) float64 {
	if debtUSD == 0 {
		return collateralUSD
	}
	minCollateral := target(targetHF, DefaultSafetyTarget) * debtUSD / (thresholdBps / 10000)
	return math.Max(0, collateralUSD-minCollateral)
}

// CalculateLiquidationPriceDrop returns the collateral price drop, in
// percent, that would bring the position to liquidation:
//
//	drop = (1 - 1/(HF * threshold)) * 100
func CalculateLiquidationPriceDrop(hf, thresholdBps float64) float64 {
	drop := (1 - 1/(hf*(thresholdBps/10000))) * 100
	if math.IsNaN(drop) {
		return 0
	}
	return math.Max(0, drop)
}

// SimulateBorrow classifies the position after borrowing amountUSD more.
func SimulateBorrow(collateralUSD, debtUSD, amountUSD, thresholdBps float64) HealthFactorStatus {
	return AnalyzeHealthFactor(HealthFactor(collateralUSD, debtUSD+amountUSD, thresholdBps))
}

// SimulateWithdrawal classifies the position after withdrawing amountUSD of
// collateral. Collateral never goes below zero.
func SimulateWithdrawal(collateralUSD, debtUSD, amountUSD, thresholdBps float64) HealthFactorStatus {
	remaining := math.Max(0, collateralUSD-amountUSD)
	return AnalyzeHealthFactor(HealthFactor(remaining, debtUSD, thresholdBps))
}

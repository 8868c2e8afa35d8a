package risk

import (
	"math/big"

	"github.com/atmx/lending-risk/internal/fixedpoint"
)

// DefaultCloseFactorBps is the share of debt a single liquidation may repay.
const DefaultCloseFactorBps = 5000

// LiquidationAmount describes how much of a position a liquidator may cover.
type LiquidationAmount struct {
	IsLiquidatable          bool     `json:"is_liquidatable"`
	TotalDebt               *big.Int `json:"total_debt"`
	MaxDebtLiquidatable     *big.Int `json:"max_debt_liquidatable"`
	LiquidationBonusPercent float64  `json:"liquidation_bonus_percent"`
}

// CalculateLiquidationAmount applies the close factor to the total debt of
// a position with health factor hf. bonusBps is the reserve's liquidation
// bonus including principal (10500 = 5% bonus). A non-positive close factor
// selects DefaultCloseFactorBps.
func CalculateLiquidationAmount(hf float64, totalDebt *big.Int, closeFactorBps, bonusBps int64) LiquidationAmount {
	if totalDebt == nil {
		totalDebt = new(big.Int)
	}
	if closeFactorBps <= 0 {
		closeFactorBps = DefaultCloseFactorBps
	}
	out := LiquidationAmount{
		TotalDebt:               new(big.Int).Set(totalDebt),
		MaxDebtLiquidatable:     new(big.Int),
		LiquidationBonusPercent: bonusPercent(bonusBps),
	}
	if hf >= LiquidationThreshold {
		return out
	}
	out.IsLiquidatable = true
	out.MaxDebtLiquidatable = fixedpoint.PercentOf(totalDebt, big.NewInt(closeFactorBps))
	return out
}

// LiquidationInput describes a liquidation a keeper is considering.
type LiquidationInput struct {
	HealthFactor        float64 `json:"health_factor"`
	DebtToCover         float64 `json:"debt_to_cover"` // debt asset units
	DebtPriceUSD        float64 `json:"debt_price_usd"`
	CollateralPriceUSD  float64 `json:"collateral_price_usd"`
	LiquidationBonusBps int64   `json:"liquidation_bonus_bps"`
	GasCostUSD          float64 `json:"gas_cost_usd"`
}

// LiquidationSimulation is the expected outcome of a liquidation.
type LiquidationSimulation struct {
	CanLiquidate            bool    `json:"can_liquidate"`
	DebtValueUSD            float64 `json:"debt_value_usd"`
	CollateralValueUSD      float64 `json:"collateral_value_usd"`
	CollateralReceived      float64 `json:"collateral_received"`
	LiquidationBonusPercent float64 `json:"liquidation_bonus_percent"`
	GrossProfitUSD          float64 `json:"gross_profit_usd"`
	GasCostUSD              float64 `json:"gas_cost_usd"`
	NetProfitUSD            float64 `json:"net_profit_usd"`
	IsProfitable            bool    `json:"is_profitable"`
}

// SimulateLiquidation values the collateral seized for covering the debt:
// the liquidator receives debtValue * bonus worth of collateral and pays gas.
func SimulateLiquidation(in LiquidationInput) LiquidationSimulation {
	out := LiquidationSimulation{LiquidationBonusPercent: bonusPercent(in.LiquidationBonusBps)}
	if in.HealthFactor >= LiquidationThreshold {
		return out
	}

	multiplier := float64(in.LiquidationBonusBps) / 10000
	out.CanLiquidate = true
	out.DebtValueUSD = in.DebtToCover * in.DebtPriceUSD
	out.CollateralValueUSD = out.DebtValueUSD * multiplier
	if in.CollateralPriceUSD > 0 {
		out.CollateralReceived = out.CollateralValueUSD / in.CollateralPriceUSD
	}
	out.GrossProfitUSD = out.CollateralValueUSD - out.DebtValueUSD
	out.GasCostUSD = in.GasCostUSD
	out.NetProfitUSD = out.GrossProfitUSD - in.GasCostUSD
	out.IsProfitable = out.NetProfitUSD > 0
	return out
}

// EstimateGasCostUSD prices gasUnits at gasPriceGwei with ETH at ethPriceUSD.
func EstimateGasCostUSD(gasUnits, gasPriceGwei, ethPriceUSD float64) float64 {
	return gasUnits * gasPriceGwei * 1e9 / 1e18 * ethPriceUSD
}

func bonusPercent(bonusBps int64) float64 {
	if bonusBps <= 0 {
		return 0
	}
	return float64(bonusBps-10000) / 100
}

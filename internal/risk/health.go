// Package risk classifies lending positions by health factor and computes
// the collateral and debt adjustments that move a position between bands.
//
// Values here are USD display figures held in float64. A position with no
// debt has an infinite health factor, represented as math.Inf(1).
package risk

import (
	"fmt"
	"math"

	"github.com/atmx/lending-risk/internal/format"
)

// Health factor band boundaries. Each band includes its lower bound.
const (
	SafeThreshold        = 2.0
	WarningThreshold     = 1.5
	DangerThreshold      = 1.1
	LiquidationThreshold = 1.0
)

// Status is the risk band of a health factor.
type Status string

const (
	StatusSafe         Status = "safe"
	StatusWarning      Status = "warning"
	StatusDanger       Status = "danger"
	StatusLiquidatable Status = "liquidatable"
)

// HealthFactorStatus is the classification of a single health factor.
type HealthFactorStatus struct {
	Value               float64 `json:"value"`
	Status              Status  `json:"status"`
	Message             string  `json:"message"`
	BufferToLiquidation float64 `json:"buffer_to_liquidation"` // percent above 1.0
}

// LiquidationRisk is a full assessment of an account's position.
type LiquidationRisk struct {
	IsAtRisk             bool    `json:"is_at_risk"`
	HealthFactor         float64 `json:"health_factor"`
	LiquidationThreshold float64 `json:"liquidation_threshold"` // percent
	CurrentLTV           float64 `json:"current_ltv"`           // percent
	MaxLTV               float64 `json:"max_ltv"`               // percent
	AvailableBorrowsUSD  float64 `json:"available_borrows_usd"`
	BufferAmount         float64 `json:"buffer_amount"`
	SuggestedAction      string  `json:"suggested_action"`
}

// Classify returns the band of hf. NaN falls through to liquidatable.
func Classify(hf float64) Status {
	switch {
	case hf >= SafeThreshold:
		return StatusSafe
	case hf >= WarningThreshold:
		return StatusWarning
	case hf >= DangerThreshold:
		return StatusDanger
	default:
		return StatusLiquidatable
	}
}

// AnalyzeHealthFactor classifies hf and reports how far above the
// liquidation point it sits, in percent.
func AnalyzeHealthFactor(hf float64) HealthFactorStatus {
	status := Classify(hf)

	var message string
	switch status {
	case StatusSafe:
		message = "Position is healthy with comfortable safety margin"
	case StatusWarning:
		message = "Position approaching risk zone, consider reducing debt"
	case StatusDanger:
		message = "Position at high risk! Immediate action recommended"
	default:
		message = "Position can be liquidated! Take immediate action"
	}

	buffer := (hf - LiquidationThreshold) / LiquidationThreshold * 100
	return HealthFactorStatus{
		Value:               hf,
		Status:              status,
		Message:             message,
		BufferToLiquidation: math.Max(0, buffer),
	}
}

// HealthFactor computes collateral * threshold / debt with the threshold in
// basis points. Zero debt yields +Inf.
func HealthFactor(collateralUSD, debtUSD, thresholdBps float64) float64 {
	if debtUSD <= 0 {
		return math.Inf(1)
	}
	return collateralUSD * (thresholdBps / 10000) / debtUSD
}

// AssessLiquidationRisk builds a LiquidationRisk for a position. Thresholds
// are in basis points; the result reports them as percentages.
func AssessLiquidationRisk(collateralUSD, debtUSD, thresholdBps, maxLTVBps, availableBorrowsUSD float64) LiquidationRisk {
	currentLTV := 0.0
	if collateralUSD > 0 {
		currentLTV = debtUSD / collateralUSD * 100
	}

	hf := HealthFactor(collateralUSD, debtUSD, thresholdBps)

	safeDebtLimit := collateralUSD * (thresholdBps / 10000) / WarningThreshold
	buffer := math.Max(0, safeDebtLimit-debtUSD)

	return LiquidationRisk{
		IsAtRisk:             hf < WarningThreshold,
		HealthFactor:         hf,
		LiquidationThreshold: thresholdBps / 100,
		CurrentLTV:           currentLTV,
		MaxLTV:               maxLTVBps / 100,
		AvailableBorrowsUSD:  availableBorrowsUSD,
		BufferAmount:         buffer,
		SuggestedAction:      suggestAction(hf),
	}
}

func suggestAction(hf float64) string {
	switch Classify(hf) {
	case StatusSafe:
		return "Position is healthy. You can safely borrow more if needed."
	case StatusWarning:
		// Repaying this share of the debt lifts the position to SafeThreshold.
		repay := (1 - hf/SafeThreshold) * 100
		return fmt.Sprintf("Consider repaying %s of debt to reach safe zone.", format.Percent(repay, 2))
	case StatusDanger:
		return "URGENT: Repay debt or add collateral immediately to avoid liquidation."
	default:
		return "CRITICAL: Position is liquidatable. Repay debt immediately or add significant collateral."
	}
}

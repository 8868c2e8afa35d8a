package risk

import (
	"fmt"
	"math"
)

// TrendSensitivity is the smallest health factor move that counts as a trend.
const TrendSensitivity = 0.01

type AlertLevel string

const (
	AlertNone      AlertLevel = "none"
	AlertInfo      AlertLevel = "info"
	AlertWarning   AlertLevel = "warning"
	AlertCritical  AlertLevel = "critical"
	AlertEmergency AlertLevel = "emergency"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// MonitorResult is the outcome of comparing a health factor against the
// alert ladder and, when known, the previous observation.
type MonitorResult struct {
	Alert      bool       `json:"alert"`
	AlertLevel AlertLevel `json:"alert_level"`
	Message    string     `json:"message"`
	Trend      Trend      `json:"trend"`
}

// DetectTrend compares two observations. Moves within TrendSensitivity are
// stable; a nil previous value is always stable.
func DetectTrend(current float64, previous *float64) Trend {
	if previous == nil {
		return TrendStable
	}
	change := current - *previous
	// Inf - Inf is NaN and compares false, so a debt-free position stays stable.
	if math.Abs(change) > TrendSensitivity {
		if change > 0 {
			return TrendImproving
		}
		return TrendDeclining
	}
	return TrendStable
}

// MonitorHealthFactor raises alerts in order: below 1.0 emergency, below 1.1
// critical, below 1.5 warning, and a declining factor below 2.0 info.
func MonitorHealthFactor(current float64, previous *float64) MonitorResult {
	trend := DetectTrend(current, previous)
	res := MonitorResult{AlertLevel: AlertNone, Trend: trend}

	switch {
	case current < LiquidationThreshold:
		res.AlertLevel = AlertEmergency
		res.Message = fmt.Sprintf("EMERGENCY: Position liquidatable! Health Factor: %.4f", current)
	case current < DangerThreshold:
		res.AlertLevel = AlertCritical
		res.Message = fmt.Sprintf("CRITICAL: Position at high risk. Health Factor: %.4f", current)
	case current < WarningThreshold:
		res.AlertLevel = AlertWarning
		res.Message = fmt.Sprintf("WARNING: Position approaching danger zone. Health Factor: %.4f", current)
	case trend == TrendDeclining && current < SafeThreshold:
		res.AlertLevel = AlertInfo
		res.Message = fmt.Sprintf("INFO: Health Factor declining. Current: %.4f", current)
	default:
		return res
	}
	res.Alert = true
	return res
}

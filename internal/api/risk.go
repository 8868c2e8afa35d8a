package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/lending-risk/internal/format"
	"github.com/atmx/lending-risk/internal/guard"
	"github.com/atmx/lending-risk/internal/metrics"
	"github.com/atmx/lending-risk/internal/risk"
)

var tenThousand = decimal.NewFromInt(10000)

// PositionRequest is the USD view of an account shared by the risk endpoints.
type PositionRequest struct {
	CollateralUSD           decimal.Decimal `json:"collateral_usd"`
	DebtUSD                 decimal.Decimal `json:"debt_usd"`
	LiquidationThresholdBps int64           `json:"liquidation_threshold_bps"`
	MaxLTVBps               int64           `json:"max_ltv_bps,omitempty"`
}

func (p PositionRequest) validate() error {
	switch {
	case p.CollateralUSD.IsNegative():
		return badRequest("collateral_usd must not be negative")
	case p.DebtUSD.IsNegative():
		return badRequest("debt_usd must not be negative")
	case p.LiquidationThresholdBps <= 0 || p.LiquidationThresholdBps > 10000:
		return badRequest("liquidation_threshold_bps must be in (0, 10000]")
	case p.MaxLTVBps < 0 || p.MaxLTVBps > 10000:
		return badRequest("max_ltv_bps must be in [0, 10000]")
	}
	return nil
}

func (p PositionRequest) floats() (collateral, debt, thresholdBps float64) {
	return p.CollateralUSD.InexactFloat64(), p.DebtUSD.InexactFloat64(), float64(p.LiquidationThresholdBps)
}

func (p PositionRequest) healthFactor() float64 {
	return risk.HealthFactor(p.floats())
}

func (p PositionRequest) guardPosition() guard.Position {
	return guard.Position{
		CollateralUSD:           p.CollateralUSD,
		DebtUSD:                 p.DebtUSD,
		LiquidationThresholdBps: p.LiquidationThresholdBps,
		MaxLTVBps:               p.MaxLTVBps,
	}
}

// AnalyzeRequest classifies either a given health factor or one computed
// from the position.
type AnalyzeRequest struct {
	HealthFactor *float64 `json:"health_factor,omitempty"`
	PositionRequest
}

// AnalyzeResponse is the JSON body returned from POST /health-factor/analyze.
type AnalyzeResponse struct {
	Health               risk.HealthFactorStatus `json:"health"`
	LiquidationPriceDrop *float64                `json:"liquidation_price_drop,omitempty"` // percent
}

// TargetsRequest is the JSON body for POST /risk/targets. A zero target
// selects 2.0 for repairs and 1.5 for headroom.
type TargetsRequest struct {
	PositionRequest
	TargetHealthFactor float64 `json:"target_health_factor,omitempty"`
}

// TargetsResponse lists the adjustments that move a position to the target.
type TargetsResponse struct {
	Health               risk.HealthFactorStatus `json:"health"`
	CollateralNeededUSD  float64                 `json:"collateral_needed_usd"`
	DebtToRepayUSD       float64                 `json:"debt_to_repay_usd"`
	MaxSafeBorrowUSD     float64                 `json:"max_safe_borrow_usd"`
	MaxSafeWithdrawalUSD float64                 `json:"max_safe_withdrawal_usd"`
	LiquidationPriceDrop float64                 `json:"liquidation_price_drop"` // percent
	Summary              string                  `json:"summary"`
}

// ActionRequest is the JSON body for the borrow and withdrawal simulations.
type ActionRequest struct {
	PositionRequest
	AmountUSD decimal.Decimal `json:"amount_usd"`
}

// SimulationResponse reports the simulated position and whether the guard
// would allow the action.
type SimulationResponse struct {
	Allowed   bool                    `json:"allowed"`
	Simulated risk.HealthFactorStatus `json:"simulated"`
	Error     string                  `json:"error,omitempty"`
}

// LiquidationAmountRequest is the JSON body for POST /liquidation/amount.
type LiquidationAmountRequest struct {
	HealthFactor        float64 `json:"health_factor"`
	TotalDebt           string  `json:"total_debt"`
	CloseFactorBps      int64   `json:"close_factor_bps,omitempty"`
	LiquidationBonusBps int64   `json:"liquidation_bonus_bps,omitempty"`
}

// LiquidationAmountResponse is LiquidationAmount with integers as strings.
type LiquidationAmountResponse struct {
	IsLiquidatable          bool    `json:"is_liquidatable"`
	TotalDebt               string  `json:"total_debt"`
	MaxDebtLiquidatable     string  `json:"max_debt_liquidatable"`
	LiquidationBonusPercent float64 `json:"liquidation_bonus_percent"`
}

// LiquidationSimulationRequest prices gas from units and gwei when
// gas_cost_usd is not given.
type LiquidationSimulationRequest struct {
	risk.LiquidationInput
	GasUnits     float64 `json:"gas_units,omitempty"`
	GasPriceGwei float64 `json:"gas_price_gwei,omitempty"`
	ETHPriceUSD  float64 `json:"eth_price_usd,omitempty"`
}

// AnalyzeHealthFactor handles POST /api/v1/health-factor/analyze
func (s *Service) AnalyzeHealthFactor(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	var hf float64
	switch {
	case req.HealthFactor != nil:
		if *req.HealthFactor < 0 {
			writeErr(w, badRequest("health_factor must not be negative"))
			return
		}
		hf = *req.HealthFactor
	default:
		if err := req.validate(); err != nil {
			writeErr(w, err)
			return
		}
		hf = req.healthFactor()
	}

	resp := AnalyzeResponse{Health: risk.AnalyzeHealthFactor(hf)}
	if req.LiquidationThresholdBps > 0 {
		drop := risk.CalculateLiquidationPriceDrop(hf, float64(req.LiquidationThresholdBps))
		resp.LiquidationPriceDrop = &drop
	}
	metrics.AssessmentsTotal.WithLabelValues(string(resp.Health.Status)).Inc()
	writeJSON(w, http.StatusOK, resp)
}

// AssessRisk handles POST /api/v1/risk/assess
func (s *Service) AssessRisk(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeErr(w, err)
		return
	}
	start := time.Now()

	maxBorrow := req.CollateralUSD.Mul(decimal.NewFromInt(req.MaxLTVBps)).Div(tenThousand)
	available := decimal.Max(decimal.Zero, maxBorrow.Sub(req.DebtUSD))

	collateral, debt, threshold := req.floats()
	assessment := risk.AssessLiquidationRisk(collateral, debt, threshold, float64(req.MaxLTVBps), available.InexactFloat64())

	metrics.ObserveSince("assess", start)
	metrics.AssessmentsTotal.WithLabelValues(string(risk.Classify(assessment.HealthFactor))).Inc()
	writeJSON(w, http.StatusOK, assessment)
}

// RiskTargets handles POST /api/v1/risk/targets
func (s *Service) RiskTargets(w http.ResponseWriter, r *http.Request) {
	var req TargetsRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeErr(w, err)
		return
	}
	if req.TargetHealthFactor < 0 {
		writeErr(w, badRequest("target_health_factor must not be negative"))
		return
	}

	c, d, t := req.floats()
	hf := risk.HealthFactor(c, d, t)
	resp := TargetsResponse{
		Health:               risk.AnalyzeHealthFactor(hf),
		CollateralNeededUSD:  risk.CalculateCollateralNeeded(c, d, t, req.TargetHealthFactor),
		DebtToRepayUSD:       risk.CalculateDebtToRepay(c, d, t, req.TargetHealthFactor),
		MaxSafeBorrowUSD:     risk.CalculateMaxSafeBorrow(c, d, t, req.TargetHealthFactor),
		MaxSafeWithdrawalUSD: risk.CalculateMaxSafeWithdrawal(c, d, t, req.TargetHealthFactor),
		LiquidationPriceDrop: risk.CalculateLiquidationPriceDrop(hf, t),
	}
	resp.Summary = fmt.Sprintf("Repay %s or add %s of collateral to reach the target; %s more can be borrowed safely.",
		format.USD(resp.DebtToRepayUSD), format.USD(resp.CollateralNeededUSD), format.USD(resp.MaxSafeBorrowUSD))

	writeJSON(w, http.StatusOK, resp)
}

// SimulateBorrow handles POST /api/v1/risk/simulate/borrow
func (s *Service) SimulateBorrow(w http.ResponseWriter, r *http.Request) {
	s.simulate(w, r, "borrow", s.guard.CheckBorrow)
}

// SimulateWithdrawal handles POST /api/v1/risk/simulate/withdraw
func (s *Service) SimulateWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.simulate(w, r, "withdraw", s.guard.CheckWithdrawal)
}

type guardCheck func(guard.Position, decimal.Decimal) (risk.HealthFactorStatus, error)

func (s *Service) simulate(w http.ResponseWriter, r *http.Request, action string, check guardCheck) {
	var req ActionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeErr(w, err)
		return
	}
	start := time.Now()
	defer metrics.ObserveSince("simulate_"+action, start)

	status, err := check(req.guardPosition(), req.AmountUSD)
	switch {
	case errors.Is(err, guard.ErrHealthFactorTooLow):
		metrics.GuardRejections.WithLabelValues("health_factor").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, SimulationResponse{Simulated: status, Error: err.Error()})
	case errors.Is(err, guard.ErrLTVExceeded):
		metrics.GuardRejections.WithLabelValues("ltv").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, SimulationResponse{Simulated: status, Error: err.Error()})
	case err != nil:
		writeErr(w, err)
	default:
		writeJSON(w, http.StatusOK, SimulationResponse{Allowed: true, Simulated: status})
	}
}

// LiquidationAmount handles POST /api/v1/liquidation/amount
func (s *Service) LiquidationAmount(w http.ResponseWriter, r *http.Request) {
	var req LiquidationAmountRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	debt, err := parseUint("total_debt", req.TotalDebt)
	if err != nil {
		writeErr(w, err)
		return
	}
	if req.CloseFactorBps < 0 || req.CloseFactorBps > 10000 {
		writeErr(w, badRequest("close_factor_bps must be in [0, 10000]"))
		return
	}

	amt := risk.CalculateLiquidationAmount(req.HealthFactor, debt, req.CloseFactorBps, req.LiquidationBonusBps)
	writeJSON(w, http.StatusOK, LiquidationAmountResponse{
		IsLiquidatable:          amt.IsLiquidatable,
		TotalDebt:               intString(amt.TotalDebt),
		MaxDebtLiquidatable:     intString(amt.MaxDebtLiquidatable),
		LiquidationBonusPercent: amt.LiquidationBonusPercent,
	})
}

// SimulateLiquidation handles POST /api/v1/liquidation/simulate
func (s *Service) SimulateLiquidation(w http.ResponseWriter, r *http.Request) {
	var req LiquidationSimulationRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	in := req.LiquidationInput
	if in.DebtToCover < 0 || in.DebtPriceUSD < 0 || in.CollateralPriceUSD < 0 || in.GasCostUSD < 0 {
		writeErr(w, badRequest("amounts and prices must not be negative"))
		return
	}
	if in.LiquidationBonusBps != 0 && in.LiquidationBonusBps < 10000 {
		writeErr(w, badRequest("liquidation_bonus_bps includes principal and must be at least 10000"))
		return
	}
	if in.GasCostUSD == 0 && req.GasUnits > 0 {
		in.GasCostUSD = risk.EstimateGasCostUSD(req.GasUnits, req.GasPriceGwei, req.ETHPriceUSD)
	}

	sim := risk.SimulateLiquidation(in)
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"gas_cost_usd", sim.GasCostUSD},
		{"debt_value_usd", sim.DebtValueUSD},
		{"collateral_value_usd", sim.CollateralValueUSD},
		{"collateral_received", sim.CollateralReceived},
		{"gross_profit_usd", sim.GrossProfitUSD},
		{"net_profit_usd", sim.NetProfitUSD},
	} {
		if err := finite(f.name, f.v); err != nil {
			writeErr(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, sim)
}

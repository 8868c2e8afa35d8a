package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/lending-risk/internal/fixedpoint"
	"github.com/atmx/lending-risk/internal/metrics"
	"github.com/atmx/lending-risk/internal/model"
	"github.com/atmx/lending-risk/internal/rates"
	"github.com/atmx/lending-risk/internal/reserve"
)

const maxCurveSteps = 1000

// ReserveConfigurationRequest decodes a reserve bitmap and optionally the
// user bitmap entry for one reserve index. Bitmaps are decimal or 0x hex.
type ReserveConfigurationRequest struct {
	Configuration     string `json:"configuration"`
	UserConfiguration string `json:"user_configuration,omitempty"`
	ReserveIndex      *int   `json:"reserve_index,omitempty"`
}

// ReserveConfigurationResponse is the decoded configuration with its basis
// point fields also rendered as percentages.
type ReserveConfigurationResponse struct {
	Configuration               reserve.Configuration      `json:"configuration"`
	LTVPercent                  float64                    `json:"ltv_percent"`
	LiquidationThresholdPercent float64                    `json:"liquidation_threshold_percent"`
	LiquidationBonusPercent     float64                    `json:"liquidation_bonus_percent"`
	User                        *reserve.UserConfiguration `json:"user,omitempty"`
}

// RegisterStrategyRequest is the JSON body for POST /strategies. Rates are
// ray-scaled integers and reserve_factor is a percentage.
type RegisterStrategyRequest struct {
	ID                     string          `json:"id,omitempty"`
	Asset                  string          `json:"asset"`
	Symbol                 string          `json:"symbol"`
	BaseVariableBorrowRate string          `json:"base_variable_borrow_rate"`
	VariableRateSlope1     string          `json:"variable_rate_slope1"`
	VariableRateSlope2     string          `json:"variable_rate_slope2"`
	BaseStableBorrowRate   string          `json:"base_stable_borrow_rate"`
	StableRateSlope1       string          `json:"stable_rate_slope1"`
	StableRateSlope2       string          `json:"stable_rate_slope2"`
	OptimalUsageRatio      string          `json:"optimal_usage_ratio"`
	ReserveFactor          decimal.Decimal `json:"reserve_factor"`
}

// ReserveStateRequest is the JSON body for POST /strategies/{id}/rates.
type ReserveStateRequest struct {
	TotalVariableDebt  string `json:"total_variable_debt"`
	TotalStableDebt    string `json:"total_stable_debt"`
	AvailableLiquidity string `json:"available_liquidity"`
	AverageStableRate  string `json:"average_stable_rate,omitempty"`
}

// RatesResponse is InterestRates with rays as strings plus display values.
type RatesResponse struct {
	StrategyID         string            `json:"strategy_id"`
	UtilizationRate    float64           `json:"utilization_rate"`
	VariableBorrowRate string            `json:"variable_borrow_rate"`
	StableBorrowRate   string            `json:"stable_borrow_rate"`
	LiquidityRate      string            `json:"liquidity_rate"`
	Display            map[string]string `json:"display"`
}

// CurveResponse is the JSON body returned from GET /strategies/{id}/curve.
type CurveResponse struct {
	StrategyID string                 `json:"strategy_id"`
	Points     []rates.RateProjection `json:"points"`
}

// ReserveConfiguration handles POST /api/v1/reserves/configuration
func (s *Service) ReserveConfiguration(w http.ResponseWriter, r *http.Request) {
	var req ReserveConfigurationRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	bitmap, err := reserve.ParseBitmap(req.Configuration)
	if err != nil {
		writeErr(w, err)
		return
	}
	cfg := reserve.ParseConfiguration(bitmap)
	resp := ReserveConfigurationResponse{
		Configuration:               cfg,
		LTVPercent:                  fixedpoint.BpsToPercentage(cfg.LTV),
		LiquidationThresholdPercent: fixedpoint.BpsToPercentage(cfg.LiquidationThreshold),
	}
	if cfg.LiquidationBonus > fixedpoint.PercentageFactor {
		resp.LiquidationBonusPercent = fixedpoint.BpsToPercentage(cfg.LiquidationBonus - fixedpoint.PercentageFactor)
	}

	if req.UserConfiguration != "" {
		if req.ReserveIndex == nil {
			writeErr(w, badRequest("reserve_index is required with user_configuration"))
			return
		}
		userBitmap, err := reserve.ParseBitmap(req.UserConfiguration)
		if err != nil {
			writeErr(w, err)
			return
		}
		user, err := reserve.ParseUserConfiguration(userBitmap, *req.ReserveIndex)
		if err != nil {
			writeErr(w, err)
			return
		}
		resp.User = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

// RegisterStrategy handles POST /api/v1/strategies. Registering an existing
// ID replaces it.
func (s *Service) RegisterStrategy(w http.ResponseWriter, r *http.Request) {
	var req RegisterStrategyRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	asset, err := reserve.ParseAsset(req.Asset)
	if err != nil {
		writeErr(w, err)
		return
	}
	symbol := strings.TrimSpace(req.Symbol)
	if err := reserve.ValidateSymbol(symbol); err != nil {
		writeErr(w, err)
		return
	}
	if req.ReserveFactor.IsNegative() || req.ReserveFactor.GreaterThan(decimal.NewFromInt(100)) {
		writeErr(w, badRequest("reserve_factor must be in [0, 100]"))
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	strategy := &model.ReserveStrategy{
		ID:                     id,
		Asset:                  asset.Hex(),
		Symbol:                 symbol,
		BaseVariableBorrowRate: strings.TrimSpace(req.BaseVariableBorrowRate),
		VariableRateSlope1:     strings.TrimSpace(req.VariableRateSlope1),
		VariableRateSlope2:     strings.TrimSpace(req.VariableRateSlope2),
		BaseStableBorrowRate:   strings.TrimSpace(req.BaseStableBorrowRate),
		StableRateSlope1:       strings.TrimSpace(req.StableRateSlope1),
		StableRateSlope2:       strings.TrimSpace(req.StableRateSlope2),
		OptimalUsageRatio:      strings.TrimSpace(req.OptimalUsageRatio),
		ReserveFactor:          req.ReserveFactor,
		UpdatedAt:              s.now(),
	}
	if _, err := reserve.StrategyParams(*strategy); err != nil {
		writeErr(w, err)
		return
	}

	ctx := r.Context()
	if err := s.store.PutStrategy(ctx, strategy); err != nil {
		writeErr(w, err)
		return
	}
	s.refreshStrategyGauge(ctx)

	slog.Info("strategy registered",
		"id", strategy.ID,
		"symbol", strategy.Symbol,
		"asset", strategy.Asset,
		"optimal_usage_ratio", strategy.OptimalUsageRatio,
	)
	writeJSON(w, http.StatusCreated, strategy)
}

// ListStrategies handles GET /api/v1/strategies
func (s *Service) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := s.store.ListStrategies(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if strategies == nil {
		strategies = []model.ReserveStrategy{}
	}
	writeJSON(w, http.StatusOK, strategies)
}

// GetStrategy handles GET /api/v1/strategies/{strategyID}
func (s *Service) GetStrategy(w http.ResponseWriter, r *http.Request) {
	strategy, err := s.store.GetStrategy(r.Context(), chi.URLParam(r, "strategyID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, strategy)
}

// StrategyCurve handles GET /api/v1/strategies/{strategyID}/curve?steps=N
func (s *Service) StrategyCurve(w http.ResponseWriter, r *http.Request) {
	strategy, params, err := s.loadStrategy(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	steps := rates.DefaultProjectionSteps
	if raw := r.URL.Query().Get("steps"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxCurveSteps {
			writeErr(w, badRequest("steps must be an integer in [1, %d]", maxCurveSteps))
			return
		}
		steps = n
	}
	writeJSON(w, http.StatusOK, CurveResponse{
		StrategyID: strategy.ID,
		Points:     rates.ProjectInterestRates(params, strategy.ReserveFactor.InexactFloat64(), steps),
	})
}

// StrategyOptimal handles GET /api/v1/strategies/{strategyID}/optimal
func (s *Service) StrategyOptimal(w http.ResponseWriter, r *http.Request) {
	strategy, params, err := s.loadStrategy(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates.FindOptimalSupplyUtilization(params, strategy.ReserveFactor.InexactFloat64()))
}

// StrategyRates handles POST /api/v1/strategies/{strategyID}/rates
func (s *Service) StrategyRates(w http.ResponseWriter, r *http.Request) {
	strategy, params, err := s.loadStrategy(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req ReserveStateRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	var state rates.ReserveState
	if state.TotalVariableDebt, err = parseUint("total_variable_debt", req.TotalVariableDebt); err != nil {
		writeErr(w, err)
		return
	}
	if state.TotalStableDebt, err = parseUint("total_stable_debt", req.TotalStableDebt); err != nil {
		writeErr(w, err)
		return
	}
	if state.AvailableLiquidity, err = parseUint("available_liquidity", req.AvailableLiquidity); err != nil {
		writeErr(w, err)
		return
	}
	if state.AverageStableRate, err = optionalUint("average_stable_rate", req.AverageStableRate); err != nil {
		writeErr(w, err)
		return
	}

	current := rates.CurrentRates(params, state, strategy.ReserveFactor.InexactFloat64())
	writeJSON(w, http.StatusOK, RatesResponse{
		StrategyID:         strategy.ID,
		UtilizationRate:    current.UtilizationRate,
		VariableBorrowRate: intString(current.VariableBorrowRate),
		StableBorrowRate:   intString(current.StableBorrowRate),
		LiquidityRate:      intString(current.LiquidityRate),
		Display: map[string]string{
			"variable_borrow_rate": rates.RayToPercentString(current.VariableBorrowRate) + "%",
			"stable_borrow_rate":   rates.RayToPercentString(current.StableBorrowRate) + "%",
			"liquidity_rate":       rates.RayToPercentString(current.LiquidityRate) + "%",
		},
	})
}

func (s *Service) loadStrategy(r *http.Request) (*model.ReserveStrategy, rates.InterestRateParams, error) {
	strategy, err := s.store.GetStrategy(r.Context(), chi.URLParam(r, "strategyID"))
	if err != nil {
		return nil, rates.InterestRateParams{}, err
	}
	params, err := reserve.StrategyParams(*strategy)
	if err != nil {
		return nil, rates.InterestRateParams{}, err
	}
	return strategy, params, nil
}

func (s *Service) refreshStrategyGauge(ctx context.Context) {
	strategies, err := s.store.ListStrategies(ctx)
	if err != nil {
		slog.Warn("count strategies", "err", err)
		return
	}
	metrics.StrategiesRegistered.Set(float64(len(strategies)))
}

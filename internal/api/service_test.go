package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmx/lending-risk/internal/api"
	"github.com/atmx/lending-risk/internal/guard"
	"github.com/atmx/lending-risk/internal/model"
	"github.com/atmx/lending-risk/internal/monitor"
	"github.com/atmx/lending-risk/internal/store"
)

// newTestEnv creates a Service with an in-memory store mounted on a chi router.
func newTestEnv(t *testing.T) (*api.Service, *store.MemoryStore, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	svc := api.NewService(ms, guard.NewBorrowGuard(1.5), monitor.New(ms, nil), nil)

	r := chi.NewRouter()
	r.Route("/api/v1", svc.Routes)
	return svc, ms, r
}

func do(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

func position(collateral, debt string) map[string]any {
	return map[string]any{
		"collateral_usd":            collateral,
		"debt_usd":                  debt,
		"liquidation_threshold_bps": 8000,
		"max_ltv_bps":               7500,
	}
}

// seedStrategy registers an 80% kink strategy: 4%/75% variable slopes,
// 5% stable base with 2%/75% slopes.
func seedStrategy(t *testing.T, router chi.Router, id string) {
	t.Helper()
	w := do(t, router, "POST", "/api/v1/strategies", map[string]any{
		"id":                        id,
		"asset":                     "0x6b175474e89094c44da98b954eedeac495271d0f",
		"symbol":                    "DAI",
		"base_variable_borrow_rate": "0",
		"variable_rate_slope1":      "40000000000000000000000000",
		"variable_rate_slope2":      "750000000000000000000000000",
		"base_stable_borrow_rate":   "50000000000000000000000000",
		"stable_rate_slope1":        "20000000000000000000000000",
		"stable_rate_slope2":        "750000000000000000000000000",
		"optimal_usage_ratio":       "800000000000000000000000000",
		"reserve_factor":            "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// --- Conversion ---

func TestConvertToWei(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/convert/to-wei", map[string]any{"amount": "1.5"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ConversionResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "1500000000000000000", resp.Wei)
	assert.Equal(t, 18, resp.Decimals)

	w = do(t, router, "POST", "/api/v1/convert/to-wei", map[string]any{"amount": "100.25", "decimals": 6})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, "100250000", resp.Wei)

	for _, bad := range []map[string]any{
		{"amount": "1.2.3"},
		{"amount": ""},
		{"amount": "1.234", "decimals": 2},
		{"amount": "1e20000000", "decimals": 0},
		{"amount": "10", "decimals": 4294967295},
		{"amount": "10", "decimals": 78},
	} {
		w := do(t, router, "POST", "/api/v1/convert/to-wei", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, "input %v", bad)
	}
}

func TestConvertFromWei(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/convert/from-wei", map[string]any{"value": "1500000000000000000"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ConversionResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "1.5", resp.Amount)

	w = do(t, router, "POST", "/api/v1/convert/from-wei", map[string]any{"value": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConvertRay(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/convert/ray", map[string]any{"percent": 5})
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.RayResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "50000000000000000000000000", resp.Ray)
	assert.Equal(t, "0.05", resp.Decimal)
	assert.Equal(t, 5.0, resp.Percent)
	assert.Equal(t, "5", resp.Display)

	// Whole-percent output truncates; the display keeps two decimals.
	w = do(t, router, "POST", "/api/v1/convert/ray", map[string]any{"ray": "35500000000000000000000000"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, 3.0, resp.Percent)
	assert.Equal(t, "3.55", resp.Display)

	w = do(t, router, "POST", "/api/v1/convert/ray", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 0.035 ray compounds as a whole 3%.
	w = do(t, router, "POST", "/api/v1/convert/ray", map[string]any{"percent": 3.5})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.InDelta(t, 3.0454533953516855, resp.APY, 1e-9)

	w = do(t, router, "POST", "/api/v1/convert/ray", map[string]any{"percent": 1e300})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// 1000x APR overflows the APY.
	w = do(t, router, "POST", "/api/v1/convert/ray", map[string]any{"ray": "1000" + strings.Repeat("0", 27)})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

// --- Risk ---

func TestAnalyzeHealthFactor(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/health-factor/analyze", map[string]any{"health_factor": 1.3})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Health struct {
			Status string  `json:"status"`
			Value  float64 `json:"value"`
		} `json:"health"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "danger", resp.Health.Status)

	w = do(t, router, "POST", "/api/v1/health-factor/analyze", position("10000", "0"))
	require.Equal(t, http.StatusOK, w.Code)
	var raw struct {
		Health               map[string]any `json:"health"`
		LiquidationPriceDrop float64        `json:"liquidation_price_drop"`
	}
	decodeBody(t, w, &raw)
	assert.Equal(t, "Infinity", raw.Health["value"])
	assert.Equal(t, "safe", raw.Health["status"])
	assert.Equal(t, 100.0, raw.LiquidationPriceDrop)
}

func TestAssessRisk(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/risk/assess", position("10000", "6000"))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		IsAtRisk            bool    `json:"is_at_risk"`
		HealthFactor        float64 `json:"health_factor"`
		CurrentLTV          float64 `json:"current_ltv"`
		MaxLTV              float64 `json:"max_ltv"`
		AvailableBorrowsUSD float64 `json:"available_borrows_usd"`
	}
	decodeBody(t, w, &resp)
	assert.True(t, resp.IsAtRisk)
	assert.InDelta(t, 1.3333, resp.HealthFactor, 0.0001)
	assert.InDelta(t, 60.0, resp.CurrentLTV, 1e-9)
	assert.Equal(t, 75.0, resp.MaxLTV)
	assert.Equal(t, 1500.0, resp.AvailableBorrowsUSD)

	bad := position("10000", "-1")
	w = do(t, router, "POST", "/api/v1/risk/assess", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRiskTargets(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/risk/targets", position("10000", "5000"))
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.TargetsResponse
	decodeBody(t, w, &resp)
	// hf 1.6: repair to 2.0, headroom to 1.5
	assert.InDelta(t, 2500, resp.CollateralNeededUSD, 1e-6)
	assert.InDelta(t, 1000, resp.DebtToRepayUSD, 1e-6)
	assert.InDelta(t, 333.33, resp.MaxSafeBorrowUSD, 0.01)
	assert.InDelta(t, 625, resp.MaxSafeWithdrawalUSD, 1e-6)
	assert.Contains(t, resp.Summary, "$1,000.00")
}

func TestSimulateBorrow(t *testing.T) {
	_, _, router := newTestEnv(t)

	req := position("10000", "2000")
	req["amount_usd"] = "2000"
	w := do(t, router, "POST", "/api/v1/risk/simulate/borrow", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.SimulationResponse
	decodeBody(t, w, &resp)
	assert.True(t, resp.Allowed)

	req["amount_usd"] = "4000"
	w = do(t, router, "POST", "/api/v1/risk/simulate/borrow", req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var rejected map[string]any
	decodeBody(t, w, &rejected)
	assert.Equal(t, false, rejected["allowed"])
	assert.Contains(t, rejected["error"], "health factor")

	req["amount_usd"] = "0"
	w = do(t, router, "POST", "/api/v1/risk/simulate/borrow", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulateWithdrawal(t *testing.T) {
	_, _, router := newTestEnv(t)

	req := position("10000", "2000")
	req["amount_usd"] = "5000"
	w := do(t, router, "POST", "/api/v1/risk/simulate/withdraw", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req["amount_usd"] = "7000"
	w = do(t, router, "POST", "/api/v1/risk/simulate/withdraw", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLiquidationEndpoints(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/liquidation/amount", map[string]any{
		"health_factor":         0.95,
		"total_debt":            "1000000000000000000000",
		"liquidation_bonus_bps": 10500,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var amt api.LiquidationAmountResponse
	decodeBody(t, w, &amt)
	assert.True(t, amt.IsLiquidatable)
	assert.Equal(t, "500000000000000000000", amt.MaxDebtLiquidatable)
	assert.Equal(t, 5.0, amt.LiquidationBonusPercent)

	w = do(t, router, "POST", "/api/v1/liquidation/simulate", map[string]any{
		"health_factor":         0.95,
		"debt_to_cover":         1000,
		"debt_price_usd":        1,
		"collateral_price_usd":  2000,
		"liquidation_bonus_bps": 10500,
		"gas_cost_usd":          20,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var sim struct {
		CanLiquidate       bool    `json:"can_liquidate"`
		CollateralReceived float64 `json:"collateral_received"`
		NetProfitUSD       float64 `json:"net_profit_usd"`
		IsProfitable       bool    `json:"is_profitable"`
	}
	decodeBody(t, w, &sim)
	assert.True(t, sim.CanLiquidate)
	assert.InDelta(t, 0.525, sim.CollateralReceived, 1e-9)
	assert.InDelta(t, 30, sim.NetProfitUSD, 1e-9)
	assert.True(t, sim.IsProfitable)

	// gas estimate overflows float64
	w = do(t, router, "POST", "/api/v1/liquidation/simulate", map[string]any{
		"health_factor":         0.95,
		"debt_to_cover":         1000,
		"debt_price_usd":        1,
		"collateral_price_usd":  2000,
		"liquidation_bonus_bps": 10500,
		"gas_units":             1e300,
		"gas_price_gwei":        1e300,
		"eth_price_usd":         2000,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

// --- Rates and interest ---

func TestUtilizationAndDescribe(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/rates/utilization", map[string]any{
		"total_borrows": "5000", "available_liquidity": "5000",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var u map[string]float64
	decodeBody(t, w, &u)
	assert.Equal(t, 50.0, u["utilization_rate"])

	w = do(t, router, "POST", "/api/v1/rates/describe", map[string]any{"previous": 4, "current": 8})
	require.Equal(t, http.StatusOK, w.Code)
	var change map[string]any
	decodeBody(t, w, &change)
	assert.Equal(t, "up", change["direction"])
}

func TestInterestEndpoints(t *testing.T) {
	_, _, router := newTestEnv(t)

	// 5% APR on 1e18 for one hour accrues linearly.
	w := do(t, router, "POST", "/api/v1/interest/compounded", map[string]any{
		"principal":       "1000000000000000000",
		"annual_rate":     "50000000000000000000000000",
		"elapsed_seconds": 3600,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.InterestResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "linear", resp.Method)
	assert.Equal(t, "5707762557077", resp.Interest)
	assert.Equal(t, "1000005707762557077", resp.Total)

	w = do(t, router, "POST", "/api/v1/interest/compounded", map[string]any{
		"principal":       "1000000000000000000",
		"annual_rate":     "50000000000000000000000000",
		"elapsed_seconds": 31536000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, "continuous", resp.Method)

	w = do(t, router, "POST", "/api/v1/interest/accrued", map[string]any{
		"principal":       "1000000000000000000",
		"annual_rate":     "50000000000000000000000000",
		"elapsed_seconds": 3600,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, "5707762557077", resp.Interest)

	w = do(t, router, "POST", "/api/v1/interest/accrued", map[string]any{
		"principal":       "1000",
		"elapsed_seconds": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEarnings(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/earnings", map[string]any{"amount_usd": "36500", "apy_percent": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.EarningsResponse
	decodeBody(t, w, &resp)
	assert.InDelta(t, 10, resp.Earnings.Daily, 1e-9)
	assert.InDelta(t, 3650, resp.Earnings.Yearly, 1e-9)
	assert.Equal(t, "$3,650.00", resp.Display["yearly"])
	assert.Nil(t, resp.CompoundedBalance)

	w = do(t, router, "POST", "/api/v1/earnings", map[string]any{"amount_usd": "100"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEarnings_CompoundedBalanceOutOfRange(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/earnings", map[string]any{
		"amount_usd":         "1000",
		"apy_percent":        100,
		"compounds_per_year": 1,
		"years":              5000,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Contains(t, body["error"], "compounded_balance")
}

func TestInterestCompounded_Overflow(t *testing.T) {
	_, _, router := newTestEnv(t)
	huge := "1000" + strings.Repeat("0", 27)

	w := do(t, router, "POST", "/api/v1/interest/compounded", map[string]any{
		"principal":       "1000000000000000000",
		"annual_rate":     huge,
		"elapsed_seconds": 31536000,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(t, router, "POST", "/api/v1/interest/compounded", map[string]any{
		"principal":       "0",
		"annual_rate":     huge,
		"elapsed_seconds": 31536000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.InterestResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "0", resp.Interest)
	assert.Equal(t, "0", resp.Total)
}

// --- Flash loans ---

func TestFlashLoanFee(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/flashloan/fee", map[string]any{"amount": "1000000", "version": "v2"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.FlashLoanFeeResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, int64(9), resp.PremiumBps)
	assert.Equal(t, "900", resp.Fee)
	assert.Equal(t, "1000900", resp.TotalRepayment)

	w = do(t, router, "POST", "/api/v1/flashloan/fee", map[string]any{"amount": "1000000"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, "500", resp.Fee)
}

func TestValidateFlashLoan(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/flashloan/validate", map[string]any{
		"assets":  []string{"0x123"},
		"amounts": []string{"-1"},
		"modes":   []int{3},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	decodeBody(t, w, &resp)
	assert.False(t, resp.Valid)
	assert.Len(t, resp.Errors, 3)
}

func TestFlashLoanProfitability(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/flashloan/profitability", map[string]any{
		"amount":          "1000000000000000000000",
		"expected_profit": "10000000000000000000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.ProfitabilityResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "500000000000000000", resp.Fee)
	assert.Equal(t, "25000000000000000", resp.GasCost)
	assert.Equal(t, "9475000000000000000", resp.NetProfit)
	assert.True(t, resp.IsProfitable)
}

// --- Reserves and strategies ---

func TestReserveConfiguration(t *testing.T) {
	_, _, router := newTestEnv(t)

	// ltv 7500, threshold 8000, bonus 10500, 18 decimals, active
	bitmap := uint64(7500) | uint64(8000)<<16 | uint64(10500)<<32 | uint64(18)<<48 | 1<<56
	w := do(t, router, "POST", "/api/v1/reserves/configuration", map[string]any{
		"configuration":      strconv.FormatUint(bitmap, 10),
		"user_configuration": "0x3",
		"reserve_index":      0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.ReserveConfigurationResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, int64(7500), resp.Configuration.LTV)
	assert.Equal(t, 75.0, resp.LTVPercent)
	assert.Equal(t, 80.0, resp.LiquidationThresholdPercent)
	assert.Equal(t, 5.0, resp.LiquidationBonusPercent)
	assert.True(t, resp.Configuration.Active)
	require.NotNil(t, resp.User)
	assert.True(t, resp.User.IsBorrowing)
	assert.True(t, resp.User.IsCollateral)

	w = do(t, router, "POST", "/api/v1/reserves/configuration", map[string]any{"configuration": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStrategyLifecycle(t *testing.T) {
	_, ms, router := newTestEnv(t)
	seedStrategy(t, router, "dai")

	stored, err := ms.GetStrategy(context.Background(), "dai")
	require.NoError(t, err)
	assert.Equal(t, "DAI", stored.Symbol)
	assert.True(t, strings.EqualFold("0x6b175474e89094c44da98b954eedeac495271d0f", stored.Asset))

	w := do(t, router, "GET", "/api/v1/strategies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.ReserveStrategy
	decodeBody(t, w, &list)
	assert.Len(t, list, 1)

	w = do(t, router, "GET", "/api/v1/strategies/dai/curve?steps=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var curve api.CurveResponse
	decodeBody(t, w, &curve)
	require.Len(t, curve.Points, 21)
	assert.Equal(t, 79.0, curve.Points[20].VariableBorrowRate)

	w = do(t, router, "GET", "/api/v1/strategies/dai/optimal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var best map[string]float64
	decodeBody(t, w, &best)
	assert.Equal(t, 100.0, best["utilization_rate"])
	assert.Equal(t, 72.0, best["supply_rate"])

	w = do(t, router, "POST", "/api/v1/strategies/dai/rates", map[string]any{
		"total_variable_debt": "5000",
		"total_stable_debt":   "0",
		"available_liquidity": "5000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rates api.RatesResponse
	decodeBody(t, w, &rates)
	assert.Equal(t, 50.0, rates.UtilizationRate)
	assert.Equal(t, "25000000000000000000000000", rates.VariableBorrowRate)
	assert.Equal(t, "11250000000000000000000000", rates.LiquidityRate)
	assert.Equal(t, "2.5%", rates.Display["variable_borrow_rate"])
}

func TestStrategyErrors(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/strategies/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, "GET", "/api/v1/strategies/missing/curve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, "POST", "/api/v1/strategies", map[string]any{
		"asset":  "0x123",
		"symbol": "DAI",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// optimal usage ratio above 100%
	w = do(t, router, "POST", "/api/v1/strategies", map[string]any{
		"asset":                     "0x6b175474e89094c44da98b954eedeac495271d0f",
		"symbol":                    "DAI",
		"base_variable_borrow_rate": "0",
		"variable_rate_slope1":      "0",
		"variable_rate_slope2":      "0",
		"base_stable_borrow_rate":   "0",
		"stable_rate_slope1":        "0",
		"stable_rate_slope2":        "0",
		"optimal_usage_ratio":       "2000000000000000000000000000",
		"reserve_factor":            "10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	seedStrategy(t, router, "dai")
	w = do(t, router, "GET", "/api/v1/strategies/dai/curve?steps=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Account monitoring ---

func TestAccountHealthMonitoring(t *testing.T) {
	_, _, router := newTestEnv(t)

	obs := map[string]any{"collateral_usd": "10000", "debt_usd": "4000", "liquidation_threshold_bps": 8000}
	w := do(t, router, "POST", "/api/v1/accounts/alice/health", obs)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	obs["debt_usd"] = "7500"
	w = do(t, router, "POST", "/api/v1/accounts/alice/health", obs)
	require.Equal(t, http.StatusCreated, w.Code)
	var res map[string]any
	decodeBody(t, w, &res)
	assert.Equal(t, true, res["alert"])
	assert.Equal(t, "critical", res["alert_level"])
	assert.Equal(t, "declining", res["trend"])

	w = do(t, router, "GET", "/api/v1/accounts/alice/health/history?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.HealthSnapshot
	decodeBody(t, w, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "critical", history[0].AlertLevel)

	w = do(t, router, "GET", "/api/v1/accounts/bob/health/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = do(t, router, "GET", "/api/v1/accounts/alice/health/history?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	obs["liquidation_threshold_bps"] = 0
	w = do(t, router, "POST", "/api/v1/accounts/alice/health", obs)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownFieldsRejected(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/convert/to-wei", map[string]any{"amount": "1", "extra": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "invalid request: invalid request body", body["error"])
}

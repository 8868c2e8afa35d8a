package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/lending-risk/internal/model"
	"github.com/atmx/lending-risk/internal/monitor"
)

// ObserveRequest is the JSON body for POST /accounts/{accountID}/health.
type ObserveRequest struct {
	CollateralUSD           decimal.Decimal `json:"collateral_usd"`
	DebtUSD                 decimal.Decimal `json:"debt_usd"`
	LiquidationThresholdBps int64           `json:"liquidation_threshold_bps"`
}

// ObserveHealth handles POST /api/v1/accounts/{accountID}/health
// Records a snapshot and returns the classification and any alert.
func (s *Service) ObserveHealth(w http.ResponseWriter, r *http.Request) {
	var req ObserveRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	res, err := s.monitor.Observe(r.Context(), monitor.Observation{
		AccountID:               chi.URLParam(r, "accountID"),
		CollateralUSD:           req.CollateralUSD,
		DebtUSD:                 req.DebtUSD,
		LiquidationThresholdBps: req.LiquidationThresholdBps,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HealthHistory handles GET /api/v1/accounts/{accountID}/health/history?limit=N
// Returns snapshots newest first.
func (s *Service) HealthHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErr(w, badRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	history, err := s.monitor.History(r.Context(), chi.URLParam(r, "accountID"), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if history == nil {
		history = []model.HealthSnapshot{}
	}
	writeJSON(w, http.StatusOK, history)
}

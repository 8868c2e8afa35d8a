// Package api exposes the risk, rate and flash-loan calculators over HTTP
// and serves the account monitoring and strategy registry endpoints.
//
// USD amounts travel as shopspring/decimal; on-chain integers (wei, wad,
// ray) travel as base-10 strings.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atmx/lending-risk/internal/fixedpoint"
	"github.com/atmx/lending-risk/internal/guard"
	"github.com/atmx/lending-risk/internal/monitor"
	"github.com/atmx/lending-risk/internal/rates"
	"github.com/atmx/lending-risk/internal/reserve"
	"github.com/atmx/lending-risk/internal/store"
)

// Service holds the dependencies of the HTTP handlers.
type Service struct {
	store   store.Store
	guard   *guard.BorrowGuard
	monitor *monitor.Monitor
	wsHub   *monitor.WSHub // optional; nil disables GET /ws
	now     func() time.Time
}

// NewService creates the API service. Pass nil for hub if WebSocket
// streaming is not needed.
func NewService(st store.Store, g *guard.BorrowGuard, mon *monitor.Monitor, hub *monitor.WSHub) *Service {
	return &Service{
		store:   st,
		guard:   g,
		monitor: mon,
		wsHub:   hub,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Routes registers every handler on r. Mount it under /api/v1.
func (s *Service) Routes(r chi.Router) {
	r.Route("/convert", func(r chi.Router) {
		r.Post("/to-wei", s.ConvertToWei)
		r.Post("/from-wei", s.ConvertFromWei)
		r.Post("/ray", s.ConvertRay)
	})

	r.Post("/health-factor/analyze", s.AnalyzeHealthFactor)
	r.Route("/risk", func(r chi.Router) {
		r.Post("/assess", s.AssessRisk)
		r.Post("/targets", s.RiskTargets)
		r.Post("/simulate/borrow", s.SimulateBorrow)
		r.Post("/simulate/withdraw", s.SimulateWithdrawal)
	})
	r.Post("/liquidation/amount", s.LiquidationAmount)
	r.Post("/liquidation/simulate", s.SimulateLiquidation)

	r.Post("/rates/utilization", s.Utilization)
	r.Post("/rates/describe", s.DescribeRateChange)
	r.Post("/interest/accrued", s.InterestAccrued)
	r.Post("/interest/compounded", s.InterestCompounded)
	r.Post("/earnings", s.Earnings)

	r.Route("/flashloan", func(r chi.Router) {
		r.Post("/fee", s.FlashLoanFee)
		r.Post("/validate", s.ValidateFlashLoan)
		r.Post("/profitability", s.FlashLoanProfitability)
	})

	r.Post("/reserves/configuration", s.ReserveConfiguration)
	r.Route("/strategies", func(r chi.Router) {
		r.Post("/", s.RegisterStrategy)
		r.Get("/", s.ListStrategies)
		r.Get("/{strategyID}", s.GetStrategy)
		r.Get("/{strategyID}/curve", s.StrategyCurve)
		r.Get("/{strategyID}/optimal", s.StrategyOptimal)
		r.Post("/{strategyID}/rates", s.StrategyRates)
	})

	r.Post("/accounts/{accountID}/health", s.ObserveHealth)
	r.Get("/accounts/{accountID}/health/history", s.HealthHistory)

	if s.wsHub != nil {
		r.Get("/ws", s.wsHub.HandleWS)
	}
}

// --- Helpers ---

// writeJSON encodes before writing the header so an unencodable value
// becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
		buf.Reset()
		buf.WriteString(`{"error":"internal error"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps a domain error onto its HTTP status.
func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		writeError(w, "internal error", status)
		return
	}
	writeError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, guard.ErrHealthFactorTooLow), errors.Is(err, guard.ErrLTVExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, guard.ErrInvalidAmount),
		errors.Is(err, fixedpoint.ErrInvalidAmount),
		errors.Is(err, fixedpoint.ErrDivisionByZero),
		errors.Is(err, rates.ErrInvalidParams),
		errors.Is(err, rates.ErrGrowthOverflow),
		errors.Is(err, reserve.ErrInvalidConfiguration),
		errors.Is(err, reserve.ErrInvalidAsset),
		errors.Is(err, reserve.ErrInvalidSymbol),
		errors.Is(err, reserve.ErrInvalidStrategy),
		errors.Is(err, monitor.ErrInvalidObservation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("invalid request")

// finite rejects results that JSON cannot carry.
func finite(name string, v float64) error {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return badRequest("%s is out of range", name)
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decode reads a JSON body into dst, rejecting unknown fields.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// parseInt parses a required base-10 integer field.
func parseInt(name, raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, badRequest("%s is required", name)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, badRequest("%s must be a base-10 integer", name)
	}
	return v, nil
}

// parseUint is parseInt that also rejects negative values.
func parseUint(name, raw string) (*big.Int, error) {
	v, err := parseInt(name, raw)
	if err != nil {
		return nil, err
	}
	if v.Sign() < 0 {
		return nil, badRequest("%s must not be negative", name)
	}
	return v, nil
}

// optionalUint parses an integer field that may be empty.
func optionalUint(name, raw string) (*big.Int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return parseUint(name, raw)
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

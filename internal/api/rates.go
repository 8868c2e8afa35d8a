package api

import (
	"math/big"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/lending-risk/internal/format"
	"github.com/atmx/lending-risk/internal/metrics"
	"github.com/atmx/lending-risk/internal/rates"
)

// UtilizationRequest is the JSON body for POST /rates/utilization.
type UtilizationRequest struct {
	TotalBorrows       string `json:"total_borrows"`
	AvailableLiquidity string `json:"available_liquidity"`
}

// DescribeRequest compares two percentage rates.
type DescribeRequest struct {
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
}

// InterestRequest is the JSON body for the interest endpoints. The accrued
// endpoint takes either rate_per_second or annual_rate; the compounded
// endpoint takes annual_rate. Rates are ray-scaled.
type InterestRequest struct {
	Principal      string `json:"principal"`
	RatePerSecond  string `json:"rate_per_second,omitempty"`
	AnnualRate     string `json:"annual_rate,omitempty"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// InterestResponse reports accrued interest in the principal's units.
type InterestResponse struct {
	Interest string `json:"interest"`
	Total    string `json:"total"`
	Method   string `json:"method"` // linear or continuous
}

// EarningsRequest projects earnings or borrow cost on a USD amount. The
// yield is either apy_percent or the APY of a ray annual_rate.
type EarningsRequest struct {
	AmountUSD        decimal.Decimal `json:"amount_usd"`
	APYPercent       *float64        `json:"apy_percent,omitempty"`
	AnnualRate       string          `json:"annual_rate,omitempty"`
	CompoundsPerYear int             `json:"compounds_per_year,omitempty"`
	Years            float64         `json:"years,omitempty"`
}

// EarningsResponse is the JSON body returned from POST /earnings.
type EarningsResponse struct {
	APYPercent        float64           `json:"apy_percent"`
	Earnings          rates.Earnings    `json:"earnings"`
	Display           map[string]string `json:"display"`
	CompoundedBalance *float64          `json:"compounded_balance,omitempty"`
}

// Utilization handles POST /api/v1/rates/utilization
func (s *Service) Utilization(w http.ResponseWriter, r *http.Request) {
	var req UtilizationRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	borrows, err := parseUint("total_borrows", req.TotalBorrows)
	if err != nil {
		writeErr(w, err)
		return
	}
	liquidity, err := parseUint("available_liquidity", req.AvailableLiquidity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"utilization_rate": rates.CalculateUtilizationRate(borrows, liquidity),
	})
}

// DescribeRateChange handles POST /api/v1/rates/describe
func (s *Service) DescribeRateChange(w http.ResponseWriter, r *http.Request) {
	var req DescribeRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates.DescribeRateChange(req.Previous, req.Current))
}

// InterestAccrued handles POST /api/v1/interest/accrued
func (s *Service) InterestAccrued(w http.ResponseWriter, r *http.Request) {
	var req InterestRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	principal, err := parseUint("principal", req.Principal)
	if err != nil {
		writeErr(w, err)
		return
	}
	if req.ElapsedSeconds < 0 {
		writeErr(w, badRequest("elapsed_seconds must not be negative"))
		return
	}

	var interest *big.Int
	switch {
	case req.RatePerSecond != "" && req.AnnualRate == "":
		rate, err := parseUint("rate_per_second", req.RatePerSecond)
		if err != nil {
			writeErr(w, err)
			return
		}
		interest = rates.CalculateInterestAccrued(principal, rate, req.ElapsedSeconds)
	case req.AnnualRate != "" && req.RatePerSecond == "":
		rate, err := parseUint("annual_rate", req.AnnualRate)
		if err != nil {
			writeErr(w, err)
			return
		}
		interest = rates.LinearInterest(principal, rate, req.ElapsedSeconds)
	default:
		writeErr(w, badRequest("exactly one of rate_per_second or annual_rate is required"))
		return
	}

	writeJSON(w, http.StatusOK, InterestResponse{
		Interest: interest.String(),
		Total:    new(big.Int).Add(principal, interest).String(),
		Method:   "linear",
	})
}

// InterestCompounded handles POST /api/v1/interest/compounded
func (s *Service) InterestCompounded(w http.ResponseWriter, r *http.Request) {
	var req InterestRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	principal, err := parseUint("principal", req.Principal)
	if err != nil {
		writeErr(w, err)
		return
	}
	rate, err := parseUint("annual_rate", req.AnnualRate)
	if err != nil {
		writeErr(w, err)
		return
	}
	if req.ElapsedSeconds < 0 {
		writeErr(w, badRequest("elapsed_seconds must not be negative"))
		return
	}
	start := time.Now()
	interest, err := rates.CalculateCompoundedInterest(principal, rate, req.ElapsedSeconds)
	metrics.ObserveSince("compound_interest", start)
	if err != nil {
		writeErr(w, err)
		return
	}

	method := "continuous"
	if req.ElapsedSeconds < int64(rates.CompoundingCutoff/time.Second) {
		method = "linear"
	}
	writeJSON(w, http.StatusOK, InterestResponse{
		Interest: interest.String(),
		Total:    new(big.Int).Add(principal, interest).String(),
		Method:   method,
	})
}

// Earnings handles POST /api/v1/earnings
func (s *Service) Earnings(w http.ResponseWriter, r *http.Request) {
	var req EarningsRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.AmountUSD.IsNegative() {
		writeErr(w, badRequest("amount_usd must not be negative"))
		return
	}

	var apy float64
	switch {
	case req.APYPercent != nil && req.AnnualRate == "":
		apy = *req.APYPercent
	case req.AnnualRate != "" && req.APYPercent == nil:
		rate, err := parseUint("annual_rate", req.AnnualRate)
		if err != nil {
			writeErr(w, err)
			return
		}
		apy = rates.RayToAPY(rate)
		if err := finite("apy", apy); err != nil {
			writeErr(w, err)
			return
		}
	default:
		writeErr(w, badRequest("exactly one of apy_percent or annual_rate is required"))
		return
	}

	amount := req.AmountUSD.InexactFloat64()
	e := rates.ProjectEarnings(amount, apy)
	resp := EarningsResponse{
		APYPercent: apy,
		Earnings:   e,
		Display: map[string]string{
			"apy":     format.Percent(apy, 2),
			"daily":   format.USD(e.Daily),
			"weekly":  format.USD(e.Weekly),
			"monthly": format.USD(e.Monthly),
			"yearly":  format.USD(e.Yearly),
		},
	}
	if req.CompoundsPerYear > 0 && req.Years > 0 {
		balance := rates.CompoundAmount(amount, apy, req.CompoundsPerYear, req.Years)
		if err := finite("compounded_balance", balance); err != nil {
			writeErr(w, err)
			return
		}
		resp.CompoundedBalance = &balance
	}
	writeJSON(w, http.StatusOK, resp)
}

package api

import (
	"net/http"

	"github.com/atmx/lending-risk/internal/flashloan"
)

// FlashLoanFeeRequest is the JSON body for POST /flashloan/fee. premium_bps
// overrides the version's default premium.
type FlashLoanFeeRequest struct {
	Amount     string            `json:"amount"`
	Version    flashloan.Version `json:"version,omitempty"` // v2 or v3 (default)
	PremiumBps *int64            `json:"premium_bps,omitempty"`
}

// FlashLoanFeeResponse is the JSON body returned from POST /flashloan/fee.
type FlashLoanFeeResponse struct {
	Amount         string `json:"amount"`
	PremiumBps     int64  `json:"premium_bps"`
	Fee            string `json:"fee"`
	TotalRepayment string `json:"total_repayment"`
}

// FlashLoanValidateRequest is a multi-asset flash loan request.
type FlashLoanValidateRequest struct {
	Assets  []string `json:"assets"`
	Amounts []string `json:"amounts"`
	Modes   []int    `json:"modes"`
}

// ProfitabilityRequest is the JSON body for POST /flashloan/profitability.
// gas_price (wei) and gas_limit default to 50 gwei and 500k.
type ProfitabilityRequest struct {
	Amount         string            `json:"amount"`
	ExpectedProfit string            `json:"expected_profit"`
	Version        flashloan.Version `json:"version,omitempty"`
	PremiumBps     *int64            `json:"premium_bps,omitempty"`
	GasPrice       string            `json:"gas_price,omitempty"`
	GasLimit       string            `json:"gas_limit,omitempty"`
}

// ProfitabilityResponse is Profitability with integers as strings.
type ProfitabilityResponse struct {
	Fee          string  `json:"fee"`
	GasCost      string  `json:"gas_cost"`
	TotalCost    string  `json:"total_cost"`
	NetProfit    string  `json:"net_profit"`
	IsProfitable bool    `json:"is_profitable"`
	ROI          float64 `json:"roi"`
}

func premiumBps(v flashloan.Version, override *int64) (int64, error) {
	if override != nil {
		if *override < 0 || *override > 10000 {
			return 0, badRequest("premium_bps must be in [0, 10000]")
		}
		return *override, nil
	}
	return flashloan.PremiumFor(v).Total, nil
}

// FlashLoanFee handles POST /api/v1/flashloan/fee
func (s *Service) FlashLoanFee(w http.ResponseWriter, r *http.Request) {
	var req FlashLoanFeeRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	amount, err := parseUint("amount", req.Amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	bps, err := premiumBps(req.Version, req.PremiumBps)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FlashLoanFeeResponse{
		Amount:         amount.String(),
		PremiumBps:     bps,
		Fee:            flashloan.CalculateFee(amount, bps).String(),
		TotalRepayment: flashloan.CalculateTotalRepayment(amount, bps).String(),
	})
}

// ValidateFlashLoan handles POST /api/v1/flashloan/validate. Validation
// failures are reported in the body with status 200.
func (s *Service) ValidateFlashLoan(w http.ResponseWriter, r *http.Request) {
	var req FlashLoanValidateRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flashloan.ValidateParams(req.Assets, req.Amounts, req.Modes))
}

// FlashLoanProfitability handles POST /api/v1/flashloan/profitability
func (s *Service) FlashLoanProfitability(w http.ResponseWriter, r *http.Request) {
	var req ProfitabilityRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	amount, err := parseUint("amount", req.Amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	profit, err := parseInt("expected_profit", req.ExpectedProfit)
	if err != nil {
		writeErr(w, err)
		return
	}
	bps, err := premiumBps(req.Version, req.PremiumBps)
	if err != nil {
		writeErr(w, err)
		return
	}
	gasPrice, err := optionalUint("gas_price", req.GasPrice)
	if err != nil {
		writeErr(w, err)
		return
	}
	gasLimit, err := optionalUint("gas_limit", req.GasLimit)
	if err != nil {
		writeErr(w, err)
		return
	}

	p := flashloan.CalculateProfitability(amount, profit, bps, gasPrice, gasLimit)
	writeJSON(w, http.StatusOK, ProfitabilityResponse{
		Fee:          intString(p.Fee),
		GasCost:      intString(p.GasCost),
		TotalCost:    intString(p.TotalCost),
		NetProfit:    intString(p.NetProfit),
		IsProfitable: p.IsProfitable,
		ROI:          p.ROI,
	})
}

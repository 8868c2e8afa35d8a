// Package flashloan prices flash loans and checks their parameters before
// they are submitted to a pool.
package flashloan

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/atmx/lending-risk/internal/fixedpoint"
)

// Premiums in basis points.
const (
	PremiumV2 = 9
	PremiumV3 = 5
)

// Debt modes a flash-loaned asset can be left open as.
const (
	ModeNone     = 0
	ModeStable   = 1
	ModeVariable = 2
)

var (
	DefaultGasPrice = big.NewInt(50_000_000_000) // 50 gwei
	DefaultGasLimit = big.NewInt(500_000)
)

// Version identifies the pool generation.
type Version string

const (
	V2 Version = "v2"
	V3 Version = "v3"
)

// Premium is the fee split of a pool, in basis points.
type Premium struct {
	Total      int64 `json:"total"`
	ToProtocol int64 `json:"to_protocol"`
}

// PremiumFor returns the default premium of a pool version. Anything but
// v2 is treated as v3.
func PremiumFor(v Version) Premium {
	if Version(strings.ToLower(string(v))) == V2 {
		return Premium{Total: PremiumV2}
	}
	return Premium{Total: PremiumV3}
}

// CalculateFee returns amount * premiumBps / 10000, truncated.
func CalculateFee(amount *big.Int, premiumBps int64) *big.Int {
	return fixedpoint.PercentOf(amount, big.NewInt(premiumBps))
}

// CalculateTotalRepayment returns the amount plus the fee.
func CalculateTotalRepayment(amount *big.Int, premiumBps int64) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	fee := CalculateFee(amount, premiumBps)
	return fee.Add(fee, amount)
}

// ValidationResult collects every problem found, not just the first.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateParams checks a multi-asset flash loan request: at least one
// asset, matching slice lengths, hex addresses, positive integer amounts and
// modes in {0, 1, 2}.
func ValidateParams(assets, amounts []string, modes []int) ValidationResult {
	errs := []string{}

	if len(assets) == 0 {
		errs = append(errs, "At least one asset is required")
	}
	if len(assets) != len(amounts) {
		errs = append(errs, "Assets and amounts arrays must have the same length")
	}
	if len(assets) != len(modes) {
		errs = append(errs, "Assets and modes arrays must have the same length")
	}

	for _, asset := range assets {
		if !common.IsHexAddress(asset) {
			errs = append(errs, fmt.Sprintf("Invalid asset address: %s", asset))
		}
	}
	for _, amount := range amounts {
		v, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("Invalid amount: %s", amount))
		case v.Sign() <= 0:
			errs = append(errs, fmt.Sprintf("Amount must be positive: %s", amount))
		}
	}
	for _, mode := range modes {
		if mode != ModeNone && mode != ModeStable && mode != ModeVariable {
			errs = append(errs, fmt.Sprintf("Invalid mode: %d. Must be 0, 1, or 2", mode))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Profitability is the cost breakdown of a flash loan strategy. Amounts are
// in the loan asset's smallest unit except GasCost, which is in wei.
type Profitability struct {
	Fee          *big.Int `json:"fee"`
	GasCost      *big.Int `json:"gas_cost"`
	TotalCost    *big.Int `json:"total_cost"`
	NetProfit    *big.Int `json:"net_profit"`
	IsProfitable bool     `json:"is_profitable"`
	ROI          float64  `json:"roi"` // percent of the loan
}

// CalculateProfitability subtracts the premium and gas from expectedProfit.
// Nil gas inputs fall back to DefaultGasPrice and DefaultGasLimit. A zero
// loan has zero ROI.
func CalculateProfitability(loan, expectedProfit *big.Int, premiumBps int64, gasPrice, gasLimit *big.Int) Profitability {
	if loan == nil {
		loan = new(big.Int)
	}
	if expectedProfit == nil {
		expectedProfit = new(big.Int)
	}
	if gasPrice == nil {
		gasPrice = DefaultGasPrice
	}
	if gasLimit == nil {
		gasLimit = DefaultGasLimit
	}

	fee := CalculateFee(loan, premiumBps)
	gasCost := new(big.Int).Mul(gasPrice, gasLimit)
	totalCost := new(big.Int).Add(fee, gasCost)
	net := new(big.Int).Sub(expectedProfit, totalCost)

	roi := 0.0
	if loan.Sign() != 0 {
		bps := new(big.Int).Mul(net, fixedpoint.PercentageFactorInt())
		bps.Quo(bps, loan)
		f, _ := new(big.Float).SetInt(bps).Float64()
		roi = f / 100
	}

	return Profitability{
		Fee:          fee,
		GasCost:      gasCost,
		TotalCost:    totalCost,
		NetProfit:    net,
		IsProfitable: net.Sign() > 0,
		ROI:          roi,
	}
}

// Package reserve decodes reserve metadata: the packed configuration
// bitmaps stored on-chain, asset addresses, and registered rate strategies.
package reserve

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/atmx/lending-risk/internal/model"
	"github.com/atmx/lending-risk/internal/rates"
)

// MaxReserves is the number of reserves a user configuration bitmap can track.
const MaxReserves = 128

var (
	ErrInvalidConfiguration = errors.New("reserve: invalid configuration")
	ErrInvalidAsset         = errors.New("reserve: invalid asset address")
	ErrInvalidSymbol        = errors.New("reserve: invalid symbol")
	ErrInvalidStrategy      = errors.New("reserve: invalid strategy")
)

// symbolRegex matches reserve symbols such as WETH, USDC.e or 1INCH.
var symbolRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.]{0,15}$`)

// Configuration is the decoded reserve configuration bitmap.
//
//	bits  0-15  LTV (bps)
//	bits 16-31  liquidation threshold (bps)
//	bits 32-47  liquidation bonus (bps, 10500 = 5% bonus)
//	bits 48-55  decimals
//	bit  56     active
//	bit  57     frozen
//	bit  58     borrowing enabled
//	bit  59     stable borrowing enabled
//	bit  60     paused
//	bit  63     flash loans enabled
type Configuration struct {
	LTV                  int64 `json:"ltv"`
	LiquidationThreshold int64 `json:"liquidation_threshold"`
	LiquidationBonus     int64 `json:"liquidation_bonus"`
	Decimals             int64 `json:"decimals"`
	Active               bool  `json:"active"`
	Frozen               bool  `json:"frozen"`
	BorrowingEnabled     bool  `json:"borrowing_enabled"`
	StableBorrowEnabled  bool  `json:"stable_borrow_enabled"`
	Paused               bool  `json:"paused"`
	FlashLoanEnabled     bool  `json:"flash_loan_enabled"`
}

// ParseConfiguration decodes a reserve configuration bitmap.
func ParseConfiguration(data *big.Int) Configuration {
	if data == nil {
		data = new(big.Int)
	}
	return Configuration{
		LTV:                  field(data, 0, 16),
		LiquidationThreshold: field(data, 16, 16),
		LiquidationBonus:     field(data, 32, 16),
		Decimals:             field(data, 48, 8),
		Active:               data.Bit(56) == 1,
		Frozen:               data.Bit(57) == 1,
		BorrowingEnabled:     data.Bit(58) == 1,
		StableBorrowEnabled:  data.Bit(59) == 1,
		Paused:               data.Bit(60) == 1,
		FlashLoanEnabled:     data.Bit(63) == 1,
	}
}

// ParseBitmap reads a bitmap given as decimal or 0x-prefixed hex.
func ParseBitmap(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int), false
	if rest, hex := strings.CutPrefix(strings.ToLower(s), "0x"); hex {
		_, ok = v.SetString(rest, 16)
	} else {
		_, ok = v.SetString(s, 10)
	}
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is not an unsigned integer", ErrInvalidConfiguration, s)
	}
	return v, nil
}

// UserConfiguration reports how an account uses one reserve.
type UserConfiguration struct {
	IsCollateral bool `json:"is_collateral"`
	IsBorrowing  bool `json:"is_borrowing"`
}

// ParseUserConfiguration reads the pair of bits for reserveIndex from a user
// configuration bitmap: bit 2i is borrowing, bit 2i+1 is collateral.
func ParseUserConfiguration(data *big.Int, reserveIndex int) (UserConfiguration, error) {
	if reserveIndex < 0 || reserveIndex >= MaxReserves {
		return UserConfiguration{}, fmt.Errorf("%w: reserve index %d out of range", ErrInvalidConfiguration, reserveIndex)
	}
	if data == nil {
		return UserConfiguration{}, nil
	}
	bit := reserveIndex * 2
	return UserConfiguration{
		IsBorrowing:  data.Bit(bit) == 1,
		IsCollateral: data.Bit(bit+1) == 1,
	}, nil
}

// ParseAsset validates a hex address. All-lowercase and all-uppercase forms
// are accepted; mixed case must carry a valid EIP-55 checksum.
func ParseAsset(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrInvalidAsset, s)
	}
	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	mixed := strings.ToLower(body) != body && strings.ToUpper(body) != body
	if mixed && addr.Hex() != "0x"+body {
		return common.Address{}, fmt.Errorf("%w: bad checksum %s", ErrInvalidAsset, s)
	}
	return addr, nil
}

// ValidateSymbol checks a reserve ticker symbol.
func ValidateSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// StrategyParams decodes the ray strings of a stored strategy into curve
// parameters and validates them.
func StrategyParams(s model.ReserveStrategy) (rates.InterestRateParams, error) {
	var p rates.InterestRateParams
	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"base_variable_borrow_rate", s.BaseVariableBorrowRate, &p.BaseVariableBorrowRate},
		{"variable_rate_slope1", s.VariableRateSlope1, &p.VariableRateSlope1},
		{"variable_rate_slope2", s.VariableRateSlope2, &p.VariableRateSlope2},
		{"base_stable_borrow_rate", s.BaseStableBorrowRate, &p.BaseStableBorrowRate},
		{"stable_rate_slope1", s.StableRateSlope1, &p.StableRateSlope1},
		{"stable_rate_slope2", s.StableRateSlope2, &p.StableRateSlope2},
		{"optimal_usage_ratio", s.OptimalUsageRatio, &p.OptimalUsageRatio},
	}
	for _, f := range fields {
		v, ok := new(big.Int).SetString(strings.TrimSpace(f.raw), 10)
		if !ok {
			return rates.InterestRateParams{}, fmt.Errorf("%w: %s %q is not an integer", ErrInvalidStrategy, f.name, f.raw)
		}
		*f.dst = v
	}
	if err := p.Validate(); err != nil {
		return rates.InterestRateParams{}, fmt.Errorf("%w: %w", ErrInvalidStrategy, err)
	}
	return p, nil
}

func field(data *big.Int, offset, width uint) int64 {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	v := new(big.Int).Rsh(data, offset)
	return v.And(v, mask).Int64()
}

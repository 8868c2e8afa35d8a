// Package fixedpoint converts between human decimal amounts and the scaled
// integers used by the lending protocol: wad (1e18), ray (1e27) and basis
// points (1e4).
//
// Every exported function is pure and safe for concurrent use. Shared scale
// constants are handed out as copies so no caller can mutate them.
package fixedpoint

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	WadDecimals = 18
	RayDecimals = 27

	// PercentageFactor is 100% expressed in basis points.
	PercentageFactor = 10000

	SecondsPerYear = 31536000

	// MaxDecimals is the widest scale a uint256 can carry (10^77 < 2^256).
	MaxDecimals = 77
)

var (
	ErrInvalidAmount  = errors.New("fixedpoint: invalid amount")
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
)

var (
	wad       = new(big.Int).Exp(big.NewInt(10), big.NewInt(WadDecimals), nil)
	ray       = new(big.Int).Exp(big.NewInt(10), big.NewInt(RayDecimals), nil)
	halfWad   = new(big.Int).Rsh(wad, 1)
	halfRay   = new(big.Int).Rsh(ray, 1)
	pctFactor = big.NewInt(PercentageFactor)
	hundred   = big.NewInt(100)
)

func Wad() *big.Int     { return new(big.Int).Set(wad) }
func Ray() *big.Int     { return new(big.Int).Set(ray) }
func HalfWad() *big.Int { return new(big.Int).Set(halfWad) }
func HalfRay() *big.Int { return new(big.Int).Set(halfRay) }

// PercentageFactorInt returns 10000 as a big integer.
func PercentageFactorInt() *big.Int { return new(big.Int).Set(pctFactor) }

// MaxHealthFactor is the uint256 maximum, reported as the health factor of a
// position without debt.
func MaxHealthFactor() *big.Int { return common.MaxHash.Big() }

// ToWei parses a decimal string into an integer scaled by 10^decimals.
// "1.5" with 18 decimals yields 1500000000000000000. Inputs with more
// fractional digits than decimals are rejected rather than rounded.
func ToWei(amount string, decimals int) (*big.Int, error) {
	if err := checkDecimals(decimals); err != nil {
		return nil, err
	}
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	// Exponent notation would let "1e2000000000" expand into a huge integer.
	if strings.ContainsAny(amount, "eE") {
		return nil, fmt.Errorf("%w: %q uses exponent notation", ErrInvalidAmount, amount)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FromWei renders a scaled integer as a decimal string. The result always
// carries a fractional part ("1.0", "1.5", "0.0") and never trailing zeros.
func FromWei(value *big.Int, decimals int) (string, error) {
	if err := checkDecimals(decimals); err != nil {
		return "", err
	}
	if value == nil {
		return "0.0", nil
	}
	s := decimal.NewFromBigInt(value, -int32(decimals)).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

func checkDecimals(decimals int) error {
	switch {
	case decimals < 0:
		return fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	case decimals > MaxDecimals:
		return fmt.Errorf("%w: decimals %d exceeds %d", ErrInvalidAmount, decimals, MaxDecimals)
	}
	return nil
}

// ToRay parses a decimal string at ray precision.
func ToRay(value string) (*big.Int, error) {
	return ToWei(value, RayDecimals)
}

// FromRay renders a ray value as a decimal string.
func FromRay(value *big.Int) (string, error) {
	return FromWei(value, RayDecimals)
}

// RayToPercent converts a ray rate to a whole percentage:
//
//	percent = floor(value * 100 / RAY)
//
// The integer division drops everything below one percent; callers that
// need fractional display use rates.RayToPercentString.
func RayToPercent(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	q := new(big.Int).Mul(value, hundred)
	q.Quo(q, ray)
	return bigToFloat(q)
}

// PercentToRay converts a percentage to a ray rate with basis-point
// precision: round(percent*100) * RAY / 10000.
func PercentToRay(percent float64) (*big.Int, error) {
	n, err := PercentageToBps(percent)
	if err != nil {
		return nil, err
	}
	bps := big.NewInt(n)
	bps.Mul(bps, ray)
	return bps.Quo(bps, pctFactor), nil
}

// BpsToPercentage converts basis points to a percentage (100 bps -> 1).
func BpsToPercentage(bps int64) float64 {
	return float64(bps) / 100
}

// PercentageToBps converts a percentage to rounded basis points. Values
// that are not finite or do not fit in an int64 are rejected.
func PercentageToBps(percent float64) (int64, error) {
	bps := math.Round(percent * 100)
	if math.IsNaN(bps) || bps >= math.MaxInt64 || bps <= math.MinInt64 {
		return 0, fmt.Errorf("%w: percentage %v out of range", ErrInvalidAmount, percent)
	}
	return int64(bps), nil
}

// RayMul multiplies two ray values, rounding half up: (a*b + RAY/2) / RAY.
func RayMul(a, b *big.Int) *big.Int {
	return mulDiv(a, b, ray, halfRay)
}

// RayDiv divides two ray values, rounding half up: (a*RAY + b/2) / b.
func RayDiv(a, b *big.Int) (*big.Int, error) {
	return divScaled(a, b, ray)
}

// WadMul multiplies two wad values, rounding half up.
func WadMul(a, b *big.Int) *big.Int {
	return mulDiv(a, b, wad, halfWad)
}

// WadDiv divides two wad values, rounding half up.
func WadDiv(a, b *big.Int) (*big.Int, error) {
	return divScaled(a, b, wad)
}

// PercentOf returns value * bps / 10000.
func PercentOf(value, bps *big.Int) *big.Int {
	if value == nil || bps == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(value, bps)
	return out.Quo(out, pctFactor)
}

// WadToFloat normalises a wad quantity such as a raw health factor to a
// float64. Precision beyond float64 is lost, which is fine for display and
// band classification.
func WadToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(value), new(big.Float).SetInt(wad)).Float64()
	return f
}

func mulDiv(a, b, scale, half *big.Int) *big.Int {
	if a == nil || b == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(a, b)
	out.Add(out, half)
	return out.Quo(out, scale)
}

func divScaled(a, b, scale *big.Int) (*big.Int, error) {
	if b == nil || b.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if a == nil {
		a = new(big.Int)
	}
	out := new(big.Int).Mul(a, scale)
	out.Add(out, new(big.Int).Rsh(b, 1))
	return out.Quo(out, b), nil
}

func bigToFloat(v *big.Int) float64 {
	if v.IsInt64() {
		return float64(v.Int64())
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

package rates

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/atmx/lending-risk/internal/fixedpoint"
)

// CompoundingCutoff is the elapsed time below which CalculateCompoundedInterest
// uses simple interest.
const CompoundingCutoff = 24 * time.Hour

var secondsPerYear = big.NewInt(fixedpoint.SecondsPerYear)

// ErrGrowthOverflow is returned when compounded growth exceeds float64 range.
var ErrGrowthOverflow = errors.New("rates: compounded growth overflows")

// CalculateInterestAccrued is simple interest at a per-second ray rate:
// principal * ratePerSecond * elapsed / RAY.
func CalculateInterestAccrued(principal, ratePerSecond *big.Int, elapsedSeconds int64) *big.Int {
	if principal == nil || ratePerSecond == nil || elapsedSeconds <= 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(principal, ratePerSecond)
	out.Mul(out, big.NewInt(elapsedSeconds))
	return out.Quo(out, ray)
}

// LinearInterest is simple interest at an annual ray rate:
// principal * annualRate * elapsed / (RAY * SecondsPerYear).
func LinearInterest(principal, annualRate *big.Int, elapsedSeconds int64) *big.Int {
	if principal == nil || annualRate == nil || elapsedSeconds <= 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(principal, annualRate)
	out.Mul(out, big.NewInt(elapsedSeconds))
	den := new(big.Int).Mul(ray, secondsPerYear)
	return out.Quo(out, den)
}

// CalculateCompoundedInterest returns the interest earned on principal at an
// annual ray rate. Periods shorter than CompoundingCutoff accrue linearly;
// longer ones compound continuously, floor(principal * e^(rate*years)) - principal.
// A zero principal earns nothing at any rate; otherwise growth beyond
// float64 range fails with ErrGrowthOverflow.
func CalculateCompoundedInterest(principal, annualRate *big.Int, elapsedSeconds int64) (*big.Int, error) {
	if principal == nil || annualRate == nil || principal.Sign() == 0 || elapsedSeconds <= 0 {
		return new(big.Int), nil
	}
	if elapsedSeconds < int64(CompoundingCutoff/time.Second) {
		return LinearInterest(principal, annualRate, elapsedSeconds), nil
	}

	rate := rayToFloat(annualRate)
	years := float64(elapsedSeconds) / fixedpoint.SecondsPerYear
	multiplier := math.Exp(rate * years)
	if math.IsInf(multiplier, 0) || math.IsNaN(multiplier) {
		return nil, fmt.Errorf("%w: e^(%g*%g)", ErrGrowthOverflow, rate, years)
	}

	grown := new(big.Float).SetInt(principal)
	grown.Mul(grown, big.NewFloat(multiplier))
	total, _ := grown.Int(nil)
	return total.Sub(total, principal), nil
}

// RayToAPY converts a ray APR to an APY percentage under continuous
// compounding. The APR is first truncated to a whole percent by
// fixedpoint.RayToPercent, so 3.5% is compounded as 3%.
func RayToAPY(rate *big.Int) float64 {
	return APY(fixedpoint.RayToPercent(rate))
}

// APY converts an APR percentage to an APY percentage: (e^(apr/100) - 1) * 100.
func APY(aprPercent float64) float64 {
	if aprPercent == 0 {
		return 0
	}
	return (math.Exp(aprPercent/100) - 1) * 100
}

// RayToPercentString renders a ray rate as a percentage with up to two
// decimals ("3.5", "12.34"). Zero renders as "0".
func RayToPercentString(rate *big.Int) string {
	if rate == nil || rate.Sign() == 0 {
		return "0"
	}
	bps := new(big.Int).Mul(rate, bpsFactor)
	bps.Quo(bps, ray)
	f, _ := new(big.Float).SetInt(bps).Float64()
	return strconv.FormatFloat(f/100, 'f', -1, 64)
}

// CompoundAmount is the discrete compound growth P * (1 + r/n)^(n*t) for an
// annual rate in percent.
func CompoundAmount(principal, annualRatePercent float64, compoundsPerYear int, years float64) float64 {
	if compoundsPerYear <= 0 {
		return principal * math.Exp(annualRatePercent/100*years)
	}
	n := float64(compoundsPerYear)
	return principal * math.Pow(1+annualRatePercent/100/n, n*years)
}

// RateChange describes the move between two rate observations.
type RateChange struct {
	Direction   string  `json:"direction"` // up, down or stable
	Change      float64 `json:"change"`
	Description string  `json:"description"`
}

// DescribeRateChange summarises a move between two percentage rates. Moves
// under 0.01 points are stable.
func DescribeRateChange(previous, current float64) RateChange {
	change := current - previous
	abs := math.Abs(change)
	if abs < 0.01 {
		return RateChange{Direction: "stable", Change: 0, Description: "Rate unchanged"}
	}

	direction := "down"
	if change > 0 {
		direction = "up"
	}

	// relative move; from a zero rate any move is significant
	relative := math.Inf(1)
	if previous != 0 {
		relative = abs / math.Abs(previous) * 100
	}

	var desc string
	switch {
	case relative > 50:
		verb := "dropped"
		if direction == "up" {
			verb = "spiked"
		}
		desc = "Rate " + verb + " significantly"
	case relative > 10:
		desc = "Rate moved " + direction + " notably"
	default:
		desc = "Rate adjusted " + direction + " slightly"
	}

	return RateChange{
		Direction:   direction,
		Change:      abs,
		Description: fmt.Sprintf("%s by %.2f%%", desc, abs),
	}
}

// Earnings splits an annual percentage yield on an amount into periods.
type Earnings struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// ProjectEarnings applies apyPercent to amountUSD over a day (1/365), a week
// (1/52), a month (1/12) and a year. The same split prices supply earnings
// and borrow costs.
func ProjectEarnings(amountUSD, apyPercent float64) Earnings {
	return Earnings{
		Daily:   amountUSD * (apyPercent / 365 / 100),
		Weekly:  amountUSD * (apyPercent / 52 / 100),
		Monthly: amountUSD * (apyPercent / 12 / 100),
		Yearly:  amountUSD * (apyPercent / 100),
	}
}

func rayToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(ray)).Float64()
	return f
}

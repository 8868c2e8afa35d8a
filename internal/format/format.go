// Package format renders numbers for dashboards and alert messages.
package format

import (
	"math"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Number renders v with thousands separators and exactly decimals
// fractional digits, e.g. Number(1234.5, 2) = "1,234.50". Non-finite
// values render as "∞", "-∞" or "NaN".
func Number(v float64, decimals int) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	case math.IsNaN(v):
		return "NaN"
	}
	if decimals < 0 {
		decimals = 0
	}

	d := decimal.NewFromFloat(v).Round(int32(decimals))
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(int32(decimals))
	intPart, frac, _ := strings.Cut(fixed, ".")
	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return sign + fixed
	}
	out := sign + humanize.BigComma(n)
	if decimals > 0 {
		out += "." + frac
	}
	return out
}

// USD renders v as a dollar amount with two decimals: "$1,234.56".
func USD(v float64) string {
	s := Number(v, 2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// Percent renders v with the given decimals and a percent sign: "12.35%".
func Percent(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Number(v, decimals) + "%"
	}
	return decimal.NewFromFloat(v).StringFixed(int32(decimals)) + "%"
}

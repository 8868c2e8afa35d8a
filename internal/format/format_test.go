package format

import (
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{1234.5, 2, "1,234.50"},
		{0, 2, "0.00"},
		{999.999, 2, "1,000.00"},
		{1234567.891, 0, "1,234,568"},
		{-1234.5, 2, "-1,234.50"},
		{12, 4, "12.0000"},
		{math.Inf(1), 2, "∞"},
	}
	for _, tt := range tests {
		if got := Number(tt.v, tt.decimals); got != tt.want {
			t.Errorf("Number(%v, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
		}
	}
}

func TestUSD(t *testing.T) {
	if got := USD(1234.56); got != "$1,234.56" {
		t.Errorf("USD(1234.56) = %q", got)
	}
	if got := USD(-50); got != "-$50.00" {
		t.Errorf("USD(-50) = %q", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{12.345, 2, "12.35%"},
		{5, 2, "5.00%"},
		{12.5, 0, "13%"},
		{-3.25, 1, "-3.3%"},
	}
	for _, tt := range tests {
		if got := Percent(tt.v, tt.decimals); got != tt.want {
			t.Errorf("Percent(%v, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
		}
	}
}

package fixedpoint

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int literal " + s)
	}
	return v
}

// --- Conversions ---

func TestToWei(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.5", 18, "1500000000000000000"},
		{"1", 6, "1000000"},
		{"0.000001", 6, "1"},
		{"0", 18, "0"},
		{" 42 ", 0, "42"},
		{"1.50", 1, "15"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := ToWei(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestToWeiRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals int
	}{
		{"not a number", "abc", 18},
		{"empty", "", 18},
		{"too many fractional digits", "1.1234567", 6},
		{"negative decimals", "1", -1},
		{"decimals beyond uint256", "10", MaxDecimals + 1},
		{"decimals wider than int32", "10", math.MaxUint32},
		{"exponent notation", "1e20000000", 0},
		{"upper-case exponent", "1.5E3", 18},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToWei(tc.amount, tc.decimals)
			require.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestFromWei(t *testing.T) {
	tests := []struct {
		value    string
		decimals int
		want     string
	}{
		{"1000000000000000000", 18, "1.0"},
		{"1500000000000000000", 18, "1.5"},
		{"0", 18, "0.0"},
		{"1", 18, "0.000000000000000001"},
		{"1000000", 6, "1.0"},
		{"123456789", 6, "123.456789"},
	}
	for _, tt := range tests {
		got, err := FromWei(bi(tt.value), tt.decimals)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "FromWei(%s, %d)", tt.value, tt.decimals)
	}

	_, err := FromWei(big.NewInt(1), -2)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromWei(big.NewInt(1), math.MaxUint32)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWeiRoundTrip(t *testing.T) {
	for _, amount := range []string{"0.1", "1.5", "123.456", "1000000", "0.000000000000000001"} {
		wei, err := ToWei(amount, 18)
		require.NoError(t, err)
		back, err := FromWei(wei, 18)
		require.NoError(t, err)
		again, err := ToWei(back, 18)
		require.NoError(t, err)
		assert.Equal(t, 0, wei.Cmp(again), "round trip of %s via %s", amount, back)
	}
}

func TestRayConversions(t *testing.T) {
	one, err := ToRay("1")
	require.NoError(t, err)
	assert.Equal(t, Ray().String(), one.String())

	s, err := FromRay(one)
	require.NoError(t, err)
	assert.Equal(t, "1.0", s)
}

func mustRay(t *testing.T, percent float64) *big.Int {
	t.Helper()
	v, err := PercentToRay(percent)
	require.NoError(t, err)
	return v
}

func TestPercentToRay(t *testing.T) {
	assert.Equal(t, "50000000000000000000000000", mustRay(t, 5).String())
	assert.Equal(t, "0", mustRay(t, 0).String())
	// basis-point precision
	assert.Equal(t, "35000000000000000000000000", mustRay(t, 3.5).String())
}

func TestPercentToRayOutOfRange(t *testing.T) {
	for _, p := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), 1e17, -1e17, math.MaxFloat64} {
		_, err := PercentToRay(p)
		assert.ErrorIs(t, err, ErrInvalidAmount, "percent %v", p)
	}
}

func TestRayToPercentTruncates(t *testing.T) {
	assert.Equal(t, 5.0, RayToPercent(mustRay(t, 5)))
	assert.Equal(t, 3.0, RayToPercent(mustRay(t, 3.5)))
	assert.Equal(t, 0.0, RayToPercent(nil))
	assert.Equal(t, 100.0, RayToPercent(Ray()))
}

func TestBasisPoints(t *testing.T) {
	assert.Equal(t, 1.0, BpsToPercentage(100))
	assert.Equal(t, 80.0, BpsToPercentage(8000))

	bps, err := PercentageToBps(1.25)
	require.NoError(t, err)
	assert.Equal(t, int64(125), bps)

	bps, err = PercentageToBps(80)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), bps)
}

// --- Ray / wad arithmetic ---

func TestRayMul(t *testing.T) {
	assert.Equal(t, Ray().String(), RayMul(Ray(), Ray()).String())

	two := new(big.Int).Mul(Ray(), big.NewInt(2))
	assert.Equal(t, Ray().String(), RayMul(two, HalfRay()).String())

	// half rounds up, just below half rounds down
	assert.Equal(t, "1", RayMul(big.NewInt(1), HalfRay()).String())
	belowHalf := new(big.Int).Sub(HalfRay(), big.NewInt(1))
	assert.Equal(t, "0", RayMul(big.NewInt(1), belowHalf).String())
}

func TestRayDiv(t *testing.T) {
	two := new(big.Int).Mul(Ray(), big.NewInt(2))
	got, err := RayDiv(Ray(), two)
	require.NoError(t, err)
	assert.Equal(t, HalfRay().String(), got.String())

	_, err = RayDiv(Ray(), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestWadMulDiv(t *testing.T) {
	threeHalves := bi("1500000000000000000")
	assert.Equal(t, "2250000000000000000", WadMul(threeHalves, threeHalves).String())

	got, err := WadDiv(threeHalves, Wad())
	require.NoError(t, err)
	assert.Equal(t, threeHalves.String(), got.String())

	_, err = WadDiv(Wad(), nil)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestConstantsAreCopies(t *testing.T) {
	r := Ray()
	r.SetInt64(7)
	assert.Equal(t, "1000000000000000000000000000", Ray().String())
}

func TestPercentOf(t *testing.T) {
	amount := bi("1000000000000000000000")
	assert.Equal(t, "500000000000000000", PercentOf(amount, big.NewInt(5)).String())
	assert.Equal(t, "900000000000000000", PercentOf(amount, big.NewInt(9)).String())
}

// --- Position helpers ---

func TestCalculateHealthFactor(t *testing.T) {
	hf := CalculateHealthFactor(big.NewInt(10000), big.NewInt(5000), big.NewInt(8000))
	assert.Equal(t, "1600000000000000000", hf.String())
	assert.InDelta(t, 1.6, WadToFloat(hf), 1e-12)

	maxHF := CalculateHealthFactor(big.NewInt(10000), big.NewInt(0), big.NewInt(8000))
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", maxHF.String())
}

func TestCalculateLTV(t *testing.T) {
	assert.Equal(t, 50.0, CalculateLTV(big.NewInt(5000), big.NewInt(10000)))
	assert.Equal(t, 33.33, CalculateLTV(big.NewInt(1), big.NewInt(3)))
	assert.Equal(t, 0.0, CalculateLTV(big.NewInt(5000), big.NewInt(0)))
}

func TestCalculateAvailableBorrows(t *testing.T) {
	got := CalculateAvailableBorrows(big.NewInt(10000), big.NewInt(5000), big.NewInt(7500))
	assert.Equal(t, "2500", got.String())

	got = CalculateAvailableBorrows(big.NewInt(10000), big.NewInt(8000), big.NewInt(7500))
	assert.Equal(t, "0", got.String())
}

func TestCalculateLiquidationPrice(t *testing.T) {
	price := bi("2000")
	hf := bi("2000000000000000000")
	got, err := CalculateLiquidationPrice(price, hf, 80)
	require.NoError(t, err)
	assert.Equal(t, "1250", got.String())

	_, err = CalculateLiquidationPrice(price, big.NewInt(0), 80)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNonNumericIsZero(t *testing.T) {
	var nilFloat *float64
	inputs := []any{nil, "", "   ", "abc", "12abc", math.NaN(), math.Inf(1), nilFloat, struct{}{}, []int{1}}
	for _, in := range inputs {
		require.Equal(t, 0.0, Normalize(in), "input %#v", in)
	}
}

func TestNormalizeRoundsHalfUp(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{1.005, 1.01},
		{1.004, 1.0},
		{84.74576271186442, 84.75},
		{7.6275, 7.63},
		{"7.6275", 7.63},
		{json.Number("15.255"), 15.26},
		{100, 100},
		{uint64(42), 42},
		{float32(2.5), 2.5},
		{decimal.RequireFromString("0.125"), 0.13},
		{"1e2", 100},
		{-1.005, -1.0},
		{-1.006, -1.01},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Normalize(tc.in), "input %#v", tc.in)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, v := range []float64{0, 0.004, 0.005, 1.015, 2.675, 99.995, 117.98819999999999, 1234.5678} {
		once := Normalize(v)
		if twice := Normalize(once); twice != once {
			t.Fatalf("normalize(%v) not idempotent: %v then %v", v, once, twice)
		}
	}
}

func TestNormalizePrecision(t *testing.T) {
	require.Equal(t, 3.0, NormalizePrecision(2.5, 0))
	require.Equal(t, 1.235, NormalizePrecision(1.2345, 3))
	require.Equal(t, 2.0, NormalizePrecision(1.5, -1))
}

func TestNormalizeDoesNotClampNegatives(t *testing.T) {
	if got := Normalize(-12.344); got != -12.34 {
		t.Fatalf("expected -12.34, got %v", got)
	}
}

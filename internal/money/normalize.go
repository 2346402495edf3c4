package money

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of fractional digits kept for every monetary value.
const DefaultPrecision = 2

var half = decimal.New(5, -1)

// Normalize coerces v into a number and rounds it to two decimal places.
func Normalize(v any) float64 {
	return NormalizePrecision(v, DefaultPrecision)
}

// NormalizePrecision coerces v into a number and rounds it half-up (ties toward
// positive infinity) at the given number of fractional digits. Values that are
// nil, blank, or not numeric normalize to 0. Negative values are not clamped.
func NormalizePrecision(v any, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	rounded := RoundHalfUp(Decimal(v), int32(precision))
	f, _ := rounded.Float64()
	return f
}

// RoundHalfUp rounds d to places fractional digits with ties going toward +Inf.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// Decimal coerces a number-like value into a decimal. Floats are converted using
// their shortest decimal representation, so 1.005 stays 1.005 rather than the
// nearest binary fraction below it.
func Decimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero
		}
		return *n
	case float64:
		return fromFloat(n)
	case *float64:
		if n == nil {
			return decimal.Zero
		}
		return fromFloat(*n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int8:
		return decimal.NewFromInt(int64(n))
	case int16:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case uint:
		return fromUint(uint64(n))
	case uint8:
		return decimal.NewFromInt(int64(n))
	case uint16:
		return decimal.NewFromInt(int64(n))
	case uint32:
		return decimal.NewFromInt(int64(n))
	case uint64:
		return fromUint(n)
	case json.Number:
		return fromString(string(n))
	case string:
		return fromString(n)
	case *string:
		if n == nil {
			return decimal.Zero
		}
		return fromString(*n)
	default:
		return decimal.Zero
	}
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

func fromString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// ParseFloat accepts the same loose forms a form field may carry ("1e3", "+5").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal.Zero
	}
	return fromFloat(f)
}

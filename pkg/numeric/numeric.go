// Package numeric holds the rounding and finiteness rules shared by every stage.
// ⭐ SSOT: 소수점 반올림 규칙은 여기서만
package numeric

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// Finite reports whether v is neither NaN nor ±Inf
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round2 rounds half away from zero to 2 decimal places.
// Goes through decimal so 1.005 rounds to 1.01 rather than 1.00.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round2Ptr returns a rounded copy, or nil when v is nil or non-finite
func Round2Ptr(v *float64) *float64 {
	if v == nil || !Finite(*v) {
		return nil
	}
	r := Round2(*v)
	return &r
}

// Mean returns the arithmetic mean; ok is false for empty or non-finite results
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m, err := stats.Mean(values)
	if err != nil || !Finite(m) {
		return 0, false
	}
	return m, true
}

// FromDecimal converts a decimal to float64; ok is false when the result is non-finite
func FromDecimal(d decimal.Decimal) (float64, bool) {
	f := d.InexactFloat64()
	return f, Finite(f)
}

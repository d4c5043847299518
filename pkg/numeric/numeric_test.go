package numeric

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01},
		{33.333333, 33.33},
		{-2.345, -2.35},
		{100, 100},
		{0.125, 0.13},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestRound2Ptr(t *testing.T) {
	assert.Nil(t, Round2Ptr(nil))

	nan := math.NaN()
	assert.Nil(t, Round2Ptr(&nan))

	inf := math.Inf(-1)
	assert.Nil(t, Round2Ptr(&inf))

	v := 12.3456
	got := Round2Ptr(&v)
	require.NotNil(t, got)
	assert.Equal(t, 12.35, *got)
	assert.Equal(t, 12.3456, v, "input must not be mutated")
}

func TestMean(t *testing.T) {
	_, ok := Mean(nil)
	assert.False(t, ok)

	m, ok := Mean([]float64{20, 30})
	require.True(t, ok)
	assert.Equal(t, 25.0, m)

	_, ok = Mean([]float64{1, math.Inf(1)})
	assert.False(t, ok)
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite(0))
	assert.False(t, Finite(math.NaN()))
	assert.False(t, Finite(math.Inf(1)))

	f, ok := FromDecimal(decimal.RequireFromString("187.44"))
	assert.True(t, ok)
	assert.Equal(t, 187.44, f)
}

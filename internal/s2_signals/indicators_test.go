package s2_signals

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

func seriesOf(symbol string, closes ...float64) contracts.PriceSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	points := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = contracts.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return contracts.PriceSeries{Symbol: symbol, Points: points}
}

func ramp(from float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)
	}
	return out
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		period int
		want   *float64
	}{
		{"too short", []float64{1, 2}, 2, nil},
		{"up down", []float64{1, 2, 1}, 2, contracts.Float(33.33)},
		{"mixed", []float64{10, 11, 10.5, 12}, 2, contracts.Float(87.5)},
		{"only losses", []float64{5, 4, 3, 2}, 2, contracts.Float(0)},
		{"only gains", []float64{1, 2, 3, 4}, 2, nil},
		{"flat", []float64{7, 7, 7, 7}, 2, nil},
		{"zero period", []float64{1, 2, 3}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.closes, tt.period)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestRSI_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		closes := make([]float64, 60)
		price := 100.0
		for i := range closes {
			price *= 1 + (rng.Float64()-0.5)*0.04
			closes[i] = price
		}

		got := RSI(closes, RSIPeriod)
		if got == nil {
			continue
		}
		assert.GreaterOrEqual(t, *got, 0.0)
		assert.LessOrEqual(t, *got, 100.0)
		assert.Equal(t, math.Round(*got*100)/100, *got)
	}
}

func TestRSI_NeedsPeriodPlusOne(t *testing.T) {
	closes := []float64{10, 9, 11, 10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15}
	assert.Nil(t, RSI(closes, RSIPeriod))
	assert.NotNil(t, RSI(append(closes, 14.5), RSIPeriod))
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		window int
		want   *float64
	}{
		{"short", []float64{1, 2}, 3, nil},
		{"exact window", []float64{1, 2, 3}, 3, contracts.Float(2)},
		{"uses tail", []float64{100, 1, 2, 3, 4}, 3, contracts.Float(3)},
		{"rounded", []float64{1, 1, 2}, 3, contracts.Float(1.33)},
		{"full year", ramp(1, 200), 200, contracts.Float(100.5)},
		{"non finite", []float64{1, math.Inf(1), 2}, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SMA(tt.closes, tt.window)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestSMA_199Points(t *testing.T) {
	assert.Nil(t, SMA(ramp(1, 199), SMAWindow))
}

func TestPctOf(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name      string
		value     *float64
		reference *float64
		want      *float64
	}{
		{"quarter", contracts.Float(50), contracts.Float(200), contracts.Float(25)},
		{"rounded", contracts.Float(150), contracts.Float(101.5), contracts.Float(147.78)},
		{"zero reference", contracts.Float(50), contracts.Float(0), nil},
		{"negative reference", contracts.Float(50), contracts.Float(-10), nil},
		{"nil value", nil, contracts.Float(10), nil},
		{"nil reference", contracts.Float(10), nil, nil},
		{"nan value", &nan, contracts.Float(10), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PctOf(tt.value, tt.reference)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestIndicatorEngine_Compute(t *testing.T) {
	engine := NewIndicatorEngine(2, logger.NewNop())

	// 201개 상승 종가: 마지막 200개 평균 101.5, 손실 없음 → RSI 없음
	series := seriesOf("UP", ramp(1, 201)...)

	ind, err := engine.Compute(series, contracts.Float(150), contracts.Float(200))
	require.NoError(t, err)

	assert.Nil(t, ind.RSI14)
	require.NotNil(t, ind.SMA200)
	assert.Equal(t, 101.5, *ind.SMA200)
	require.NotNil(t, ind.PctFromSMA200)
	assert.Equal(t, 147.78, *ind.PctFromSMA200)
	require.NotNil(t, ind.PctFrom52WHigh)
	assert.Equal(t, 75.0, *ind.PctFrom52WHigh)
}

func TestIndicatorEngine_Compute_ShortHistory(t *testing.T) {
	engine := NewIndicatorEngine(1, logger.NewNop())

	ind, err := engine.Compute(seriesOf("NEW", 10, 11, 12), contracts.Float(12), nil)
	require.NoError(t, err)

	assert.Nil(t, ind.RSI14)
	assert.Nil(t, ind.SMA200)
	assert.Nil(t, ind.PctFromSMA200)
	assert.Nil(t, ind.PctFrom52WHigh)
}

func TestIndicatorEngine_Compute_InvalidSeries(t *testing.T) {
	engine := NewIndicatorEngine(1, logger.NewNop())

	series := seriesOf("BAD", 1, 2, 3)
	series.Points[2].Date = series.Points[0].Date

	_, err := engine.Compute(series, nil, nil)
	assert.True(t, errors.Is(err, contracts.ErrInvalidInput))
}

func TestIndicatorEngine_ComputeAll(t *testing.T) {
	engine := NewIndicatorEngine(3, logger.NewNop())

	bad := seriesOf("BAD", 1, 2)
	bad.Points[1].Date = bad.Points[0].Date.AddDate(0, 0, -1)

	jobs := []IndicatorJob{
		{Series: seriesOf("A", 1, 2, 1), Price: contracts.Float(5), High52W: contracts.Float(10)},
		{Series: bad},
		{Series: seriesOf("C"), Price: contracts.Float(1), High52W: contracts.Float(4)},
	}

	results := engine.ComputeAll(context.Background(), jobs)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, 50.0, *results[0].Indicators.PctFrom52WHigh)

	assert.ErrorIs(t, results[1].Err, contracts.ErrInvalidInput)
	assert.Contains(t, results[1].Err.Error(), "BAD")

	assert.NoError(t, results[2].Err)
	assert.Equal(t, 25.0, *results[2].Indicators.PctFrom52WHigh)
}

func TestIndicatorEngine_ComputeAll_Canceled(t *testing.T) {
	engine := NewIndicatorEngine(2, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := engine.ComputeAll(ctx, []IndicatorJob{{Series: seriesOf("A", 1)}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)

	assert.Empty(t, engine.ComputeAll(context.Background(), nil))
}

func TestIndicatorEngine_ConstantYear(t *testing.T) {
	engine := NewIndicatorEngine(1, logger.NewNop())

	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 42.17
	}

	ind, err := engine.Compute(seriesOf("FLAT", closes...), contracts.Float(42.17), nil)
	require.NoError(t, err)

	require.NotNil(t, ind.SMA200)
	assert.Equal(t, 42.17, *ind.SMA200)
	require.NotNil(t, ind.PctFromSMA200)
	assert.Equal(t, 100.0, *ind.PctFromSMA200)
	assert.Nil(t, ind.RSI14, "no gains and no losses")
}

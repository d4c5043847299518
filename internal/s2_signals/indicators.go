package s2_signals

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
	"github.com/wonny/sp500-screener/pkg/numeric"
)

const (
	// RSIPeriod is the Wilder lookback used by the screener
	RSIPeriod = 14
	// SMAWindow is the long trend window
	SMAWindow = 200
)

// RSI returns the relative strength index of the last close, 2 dp.
//
// Gains and losses are smoothed with an exponentially weighted mean
// (alpha = 1/period, weights normalised over all observations). The first
// close has no predecessor and contributes zero gain and zero loss.
// Returns nil with fewer than period+1 closes, or when the ratio is not
// finite (no losses in the window).
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	decay := 1 - 1/float64(period)

	// 분자만 누적: 가중치 합(분모)은 gain/loss 모두 같아 RS 에서 약분됨
	var gainNum, lossNum float64
	for i := range closes {
		var gain, loss float64
		if i > 0 {
			delta := closes[i] - closes[i-1]
			if delta > 0 {
				gain = delta
			} else if delta < 0 {
				loss = -delta
			}
		}
		gainNum = gain + decay*gainNum
		lossNum = loss + decay*lossNum
	}

	rs := gainNum / lossNum
	if !numeric.Finite(rs) {
		return nil
	}

	rsi := 100 - 100/(1+rs)
	if !numeric.Finite(rsi) {
		return nil
	}

	v := numeric.Round2(rsi)
	return &v
}

// SMA returns the mean of the last window closes, 2 dp; nil without a full window
func SMA(closes []float64, window int) *float64 {
	if window <= 0 || len(closes) < window {
		return nil
	}

	mean, ok := numeric.Mean(closes[len(closes)-window:])
	if !ok {
		return nil
	}

	v := numeric.Round2(mean)
	return &v
}

// PctOf returns value as a percentage of reference, 2 dp.
// nil unless both are present and finite and reference > 0.
func PctOf(value, reference *float64) *float64 {
	if value == nil || reference == nil {
		return nil
	}
	if !numeric.Finite(*value) || !numeric.Finite(*reference) || *reference <= 0 {
		return nil
	}

	pct := *value / *reference * 100
	if !numeric.Finite(pct) {
		return nil
	}

	v := numeric.Round2(pct)
	return &v
}

// IndicatorEngine derives the technical fields of a record
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type IndicatorEngine struct {
	rsiPeriod int
	smaWindow int
	workers   int
	logger    *logger.Logger
}

// NewIndicatorEngine creates an engine with the screener's periods
func NewIndicatorEngine(workers int, log *logger.Logger) *IndicatorEngine {
	if workers < 1 {
		workers = 1
	}
	return &IndicatorEngine{
		rsiPeriod: RSIPeriod,
		smaWindow: SMAWindow,
		workers:   workers,
		logger:    log.WithField("module", "indicators"),
	}
}

// Compute derives RSI, SMA and the two percent-of fields for one instrument.
// price and high52w come from the quote snapshot; either may be nil.
func (e *IndicatorEngine) Compute(series contracts.PriceSeries, price, high52w *float64) (contracts.InstrumentIndicators, error) {
	if err := series.Validate(); err != nil {
		return contracts.InstrumentIndicators{}, err
	}

	closes := series.Closes()
	sma := SMA(closes, e.smaWindow)

	return contracts.InstrumentIndicators{
		RSI14:  RSI(closes, e.rsiPeriod),
		SMA200: sma,
		// 반올림된 SMA 기준으로 계산
		PctFromSMA200:  PctOf(price, sma),
		PctFrom52WHigh: PctOf(price, high52w),
	}, nil
}

// IndicatorJob is one Compute call
type IndicatorJob struct {
	Series  contracts.PriceSeries
	Price   *float64
	High52W *float64
}

// IndicatorResult is the outcome of one job
type IndicatorResult struct {
	Indicators contracts.InstrumentIndicators
	Err        error
}

// ComputeAll runs Compute for every job on a bounded worker pool.
// Results are index-aligned with jobs; canceled jobs carry ctx.Err().
func (e *IndicatorEngine) ComputeAll(ctx context.Context, jobs []IndicatorJob) []IndicatorResult {
	results := make([]IndicatorResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := e.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	indexCh := make(chan int, len(jobs))
	for i := range jobs {
		indexCh <- i
	}
	close(indexCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexCh {
				if err := ctx.Err(); err != nil {
					results[i] = IndicatorResult{Err: err}
					continue
				}
				ind, err := e.Compute(jobs[i].Series, jobs[i].Price, jobs[i].High52W)
				if err != nil {
					err = fmt.Errorf("%s: %w", jobs[i].Series.Symbol, err)
				}
				results[i] = IndicatorResult{Indicators: ind, Err: err}
			}
		}()
	}
	wg.Wait()

	e.logger.WithFields(map[string]interface{}{
		"jobs":    len(jobs),
		"workers": workers,
	}).Debug("Indicators computed")

	return results
}

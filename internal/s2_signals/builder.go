package s2_signals

import (
	"context"
	"fmt"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// Builder turns collected raw instruments into canonical records
// ⭐ SSOT: 시그널 생성 오케스트레이션은 여기서만
type Builder struct {
	engine     *IndicatorEngine
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewBuilder creates a new signal builder
func NewBuilder(engine *IndicatorEngine, normalizer *Normalizer, log *logger.Logger) *Builder {
	return &Builder{
		engine:     engine,
		normalizer: normalizer,
		logger:     log.WithField("module", "signals"),
	}
}

var _ contracts.SignalBuilder = (*Builder)(nil)

// Build computes indicators in parallel, then normalizes in input order.
// A contract violation in any instrument fails the whole build.
func (b *Builder) Build(ctx context.Context, raws []contracts.RawInstrument) ([]contracts.CanonicalRecord, error) {
	b.logger.WithField("stock_count", len(raws)).Info("Starting signal generation")

	jobs := make([]IndicatorJob, len(raws))
	for i, raw := range raws {
		jobs[i] = IndicatorJob{
			Series:  raw.History,
			Price:   fundamentalPtr(raw, contracts.FieldCurrentPrice),
			High52W: fundamentalPtr(raw, contracts.FieldFiftyTwoWeekHigh),
		}
	}

	results := b.engine.ComputeAll(ctx, jobs)

	records := make([]contracts.CanonicalRecord, 0, len(raws))
	withRSI := 0
	withSMA := 0
	for i, raw := range raws {
		if err := results[i].Err; err != nil {
			return nil, fmt.Errorf("compute indicators: %w", err)
		}

		rec, err := b.normalizer.Normalize(raw, results[i].Indicators)
		if err != nil {
			return nil, fmt.Errorf("normalize record %d: %w", i, err)
		}

		if rec.RSI14 != nil {
			withRSI++
		}
		if rec.SMA200 != nil {
			withSMA++
		}
		records = append(records, rec)
	}

	b.logger.WithFields(map[string]interface{}{
		"total":    len(records),
		"with_rsi": withRSI,
		"with_sma": withSMA,
	}).Info("Signal generation completed")

	return records, nil
}

func fundamentalPtr(raw contracts.RawInstrument, key string) *float64 {
	v, ok := raw.Fundamental(key)
	if !ok {
		return nil
	}
	return &v
}

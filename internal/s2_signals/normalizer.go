package s2_signals

import (
	"fmt"
	"strings"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/numeric"
)

// fieldScale says how a raw fundamental is presented in the record
type fieldScale int

const (
	scaleNone     fieldScale = iota // 가격/비율: 2자리 반올림만
	scalePercent                    // 비율(0.12) → 퍼센트(12.00)
)

// normalizedField binds one raw key to its record slot
type normalizedField struct {
	key   string
	scale fieldScale
	slot  func(r *contracts.CanonicalRecord) **float64
}

// fieldTable lists every numeric field copied from the raw snapshot
var fieldTable = []normalizedField{
	{contracts.FieldCurrentPrice, scaleNone, func(r *contracts.CanonicalRecord) **float64 { return &r.CurrentPrice }},
	{contracts.FieldMarketCap, scaleNone, func(r *contracts.CanonicalRecord) **float64 { return &r.MarketCap }},
	{contracts.FieldForwardPE, scaleNone, func(r *contracts.CanonicalRecord) **float64 { return &r.ForwardPE }},
	{contracts.FieldTrailingPE, scaleNone, func(r *contracts.CanonicalRecord) **float64 { return &r.TrailingPE }},
	{contracts.FieldRecommendationMean, scaleNone, func(r *contracts.CanonicalRecord) **float64 { return &r.RecommendationMean }},
	{contracts.FieldEarningsGrowth, scalePercent, func(r *contracts.CanonicalRecord) **float64 { return &r.EarningsGrowth }},
	{contracts.FieldRevenueGrowth, scalePercent, func(r *contracts.CanonicalRecord) **float64 { return &r.RevenueGrowth }},
	{contracts.FieldDividendYield, scalePercent, func(r *contracts.CanonicalRecord) **float64 { return &r.DividendYield }},
	{contracts.FieldBeta, scaleNone, func(r *contracts.CanonicalRecord) **float64 { return &r.Beta }},
	{contracts.FieldFiftyTwoWeekHigh, scaleNone, func(r *contracts.CanonicalRecord) **float64 { return &r.FiftyTwoWeekHigh }},
}

// Normalizer maps raw instruments onto canonical records
// ⭐ SSOT: 원천 → 정규 레코드 변환은 여기서만
type Normalizer struct{}

// NewNormalizer creates a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize builds one record. Non-finite or missing values become nil;
// it never drops an instrument.
func (n *Normalizer) Normalize(raw contracts.RawInstrument, ind contracts.InstrumentIndicators) (contracts.CanonicalRecord, error) {
	symbol := strings.TrimSpace(raw.Symbol)
	if symbol == "" {
		return contracts.CanonicalRecord{}, fmt.Errorf("%w: empty symbol", contracts.ErrInvalidInput)
	}

	rec := contracts.CanonicalRecord{
		Symbol:               symbol,
		Name:                 raw.Name,
		Sector:               raw.Sector,
		SubIndustry:          raw.SubIndustry,
		RecommendationKey:    raw.RecommendationKey,
		InstrumentIndicators: ind,
	}

	for _, f := range fieldTable {
		v, ok := raw.Fundamental(f.key)
		if !ok || !numeric.Finite(v) {
			continue
		}
		if f.scale == scalePercent {
			v *= 100
		}
		*f.slot(&rec) = numeric.Round2Ptr(&v)
	}

	return rec, nil
}

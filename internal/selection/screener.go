package selection

import (
	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// Comparison is how a predicate compares a field against its threshold
type Comparison int

const (
	LessThan Comparison = iota
	AtMost
	GreaterThan
)

func (c Comparison) holds(value, threshold float64) bool {
	switch c {
	case LessThan:
		return value < threshold
	case AtMost:
		return value <= threshold
	case GreaterThan:
		return value > threshold
	default:
		return false
	}
}

// Predicate is one screening rule. A rule with SectorRelative set compares
// against the record's sector baseline instead of Threshold.
type Predicate struct {
	Name           string
	Field          func(r *contracts.CanonicalRecord) *float64
	Op             Comparison
	Threshold      float64
	SectorRelative bool
}

// Predicate names, in evaluation order
const (
	FilterRSI            = "rsi_below_40"
	FilterMarketCap      = "market_cap_above_100b"
	FilterRecommendation = "recommendation_at_most_2_5"
	FilterEarningsGrowth = "earnings_growth_positive"
	FilterRevenueGrowth  = "revenue_growth_positive"
	FilterForwardPE      = "forward_pe_below_sector"
	FilterPctFrom52WHigh = "pct_from_high_above_65"
	FilterPctFromSMA200  = "pct_from_200dma_above_80"
)

// DefaultPredicates is the fixed conjunction every record must satisfy
// SSOT: 8개 필터 (순서 = 평가 순서 = 진단용 첫 실패 기준)
var DefaultPredicates = []Predicate{
	{Name: FilterRSI, Field: func(r *contracts.CanonicalRecord) *float64 { return r.RSI14 }, Op: LessThan, Threshold: 40},
	{Name: FilterMarketCap, Field: func(r *contracts.CanonicalRecord) *float64 { return r.MarketCap }, Op: GreaterThan, Threshold: 100_000_000_000},
	{Name: FilterRecommendation, Field: func(r *contracts.CanonicalRecord) *float64 { return r.RecommendationMean }, Op: AtMost, Threshold: 2.5},
	{Name: FilterEarningsGrowth, Field: func(r *contracts.CanonicalRecord) *float64 { return r.EarningsGrowth }, Op: GreaterThan, Threshold: 0},
	{Name: FilterRevenueGrowth, Field: func(r *contracts.CanonicalRecord) *float64 { return r.RevenueGrowth }, Op: GreaterThan, Threshold: 0},
	{Name: FilterForwardPE, Field: func(r *contracts.CanonicalRecord) *float64 { return r.ForwardPE }, Op: LessThan, SectorRelative: true},
	{Name: FilterPctFrom52WHigh, Field: func(r *contracts.CanonicalRecord) *float64 { return r.PctFrom52WHigh }, Op: GreaterThan, Threshold: 65},
	{Name: FilterPctFromSMA200, Field: func(r *contracts.CanonicalRecord) *float64 { return r.PctFromSMA200 }, Op: GreaterThan, Threshold: 80},
}

// Screener implements S3: fixed conjunction of predicates
// ⭐ SSOT: S3 스크리닝 로직은 여기서만
type Screener struct {
	predicates []Predicate
	logger     *logger.Logger
}

// NewScreener creates a screener over DefaultPredicates
func NewScreener(log *logger.Logger) *Screener {
	return &Screener{
		predicates: DefaultPredicates,
		logger:     log.WithField("module", "screener"),
	}
}

// Evaluate reports whether one predicate holds. Absent field or missing
// baseline fails.
func (p Predicate) Evaluate(rec *contracts.CanonicalRecord, baselines contracts.SectorBaselines) bool {
	value := p.Field(rec)
	if value == nil {
		return false
	}

	threshold := p.Threshold
	if p.SectorRelative {
		baseline, ok := baselines.Get(rec.Sector)
		if !ok {
			return false
		}
		threshold = baseline
	}

	return p.Op.holds(*value, threshold)
}

// FirstFailure returns the name of the first failing predicate, "" when all pass.
// Diagnostics only; it carries no ordering or score.
func (s *Screener) FirstFailure(rec *contracts.CanonicalRecord, baselines contracts.SectorBaselines) string {
	for _, p := range s.predicates {
		if !p.Evaluate(rec, baselines) {
			return p.Name
		}
	}
	return ""
}

// Passes reports whether every predicate holds
func (s *Screener) Passes(rec *contracts.CanonicalRecord, baselines contracts.SectorBaselines) bool {
	return s.FirstFailure(rec, baselines) == ""
}

// Names returns predicate names in evaluation order
func (s *Screener) Names() []string {
	names := make([]string, len(s.predicates))
	for i, p := range s.predicates {
		names[i] = p.Name
	}
	return names
}

// Screen returns the first failing predicate per record (index-aligned, ""
// when passed) and the number of records rejected by each predicate.
func (s *Screener) Screen(records []contracts.CanonicalRecord, baselines contracts.SectorBaselines) ([]string, map[string]int) {
	failures := make([]string, len(records))
	filtered := make(map[string]int, len(s.predicates)) // Filter name -> count
	for _, name := range s.Names() {
		filtered[name] = 0
	}

	passed := 0
	for i := range records {
		reason := s.FirstFailure(&records[i], baselines)
		failures[i] = reason
		if reason == "" {
			passed++
		} else {
			filtered[reason]++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(records),
		"passed":       passed,
		"filtered_out": len(records) - passed,
		"filters":      filtered,
	}).Info("Screening completed")

	return failures, filtered
}

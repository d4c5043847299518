package quality

import (
	"time"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/internal/s2_signals"
	"github.com/wonny/sp500-screener/pkg/numeric"
)

// Coverage keys
const (
	CoverageCollected      = "collected"
	CoverageFullHistory    = "full_history"
	CoverageMarketCap      = "market_cap"
	CoverageForwardPE      = "forward_pe"
	CoverageRecommendation = "recommendation"
	CoverageGrowth         = "growth"
)

// 가중치 (합계 = 1.0)
var weights = map[string]float64{
	CoverageCollected:      0.30, // 수집 성공률
	CoverageFullHistory:    0.20, // SMA200 계산 가능
	CoverageMarketCap:      0.15,
	CoverageForwardPE:      0.15,
	CoverageRecommendation: 0.10,
	CoverageGrowth:         0.10,
}

// Snapshot summarizes how complete a collection run is
type Snapshot struct {
	Date         time.Time          `json:"date"`
	TotalStocks  int                `json:"total_stocks"`
	ValidStocks  int                `json:"valid_stocks"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
}

// Config holds quality gate thresholds
type Config struct {
	MinCollectedCoverage float64 `yaml:"min_collected_coverage"` // 0.90
	MinScore             float64 `yaml:"min_score"`              // 0.70
}

// DefaultConfig matches a normal S&P 500 run, where a handful of symbols fail
func DefaultConfig() Config {
	return Config{
		MinCollectedCoverage: 0.90,
		MinScore:             0.70,
	}
}

// QualityGate scores collected data. It never drops instruments;
// a failing snapshot is a warning for the operator.
type QualityGate struct {
	config Config
	now    func() time.Time
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Check computes coverage of the collected instruments against the universe
// ⭐ SSOT: S0 수집 품질 검증
func (g *QualityGate) Check(universe *contracts.Universe, raws []contracts.RawInstrument) *Snapshot {
	total := 0
	if universe != nil {
		total = universe.Count()
	}

	snapshot := &Snapshot{
		Date:        g.now(),
		TotalStocks: total,
		ValidStocks: len(raws),
		Coverage:    make(map[string]float64, len(weights)),
	}

	if total == 0 {
		return snapshot
	}

	counts := make(map[string]int, len(weights))
	for _, raw := range raws {
		if raw.History.Len() >= s2_signals.SMAWindow {
			counts[CoverageFullHistory]++
		}
		if _, ok := raw.Fundamental(contracts.FieldMarketCap); ok {
			counts[CoverageMarketCap]++
		}
		if _, ok := raw.Fundamental(contracts.FieldForwardPE); ok {
			counts[CoverageForwardPE]++
		}
		if _, ok := raw.Fundamental(contracts.FieldRecommendationMean); ok {
			counts[CoverageRecommendation]++
		}
		_, eg := raw.Fundamental(contracts.FieldEarningsGrowth)
		_, rg := raw.Fundamental(contracts.FieldRevenueGrowth)
		if eg && rg {
			counts[CoverageGrowth]++
		}
	}
	counts[CoverageCollected] = len(raws)

	for key := range weights {
		snapshot.Coverage[key] = numeric.Round2(float64(counts[key]) / float64(total))
	}

	snapshot.QualityScore = numeric.Round2(g.calculateScore(snapshot.Coverage))
	snapshot.Passed = snapshot.Coverage[CoverageCollected] >= g.config.MinCollectedCoverage &&
		snapshot.QualityScore >= g.config.MinScore

	return snapshot
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}
	return score
}

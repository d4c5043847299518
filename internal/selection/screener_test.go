package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// passingRecord satisfies every predicate against baselines{"Tech": 25}
func passingRecord(symbol string) contracts.CanonicalRecord {
	return contracts.CanonicalRecord{
		Symbol:             symbol,
		Sector:             "Tech",
		MarketCap:          contracts.Float(2e11),
		RecommendationMean: contracts.Float(1.8),
		EarningsGrowth:     contracts.Float(5),
		RevenueGrowth:      contracts.Float(3),
		ForwardPE:          contracts.Float(18),
		InstrumentIndicators: contracts.InstrumentIndicators{
			RSI14:          contracts.Float(35),
			PctFrom52WHigh: contracts.Float(70),
			PctFromSMA200:  contracts.Float(85),
		},
	}
}

var techBaseline = contracts.SectorBaselines{"Tech": 25}

func TestComputeSectorBaselines(t *testing.T) {
	records := []contracts.CanonicalRecord{
		{Symbol: "A", Sector: "Tech", ForwardPE: contracts.Float(20)},
		{Symbol: "B", Sector: "Tech", ForwardPE: contracts.Float(30)},
		{Symbol: "C", Sector: "Tech", ForwardPE: contracts.Float(-5)},
		{Symbol: "D", Sector: "Tech"},
		{Symbol: "E", Sector: "Energy", ForwardPE: contracts.Float(0)},
		{Symbol: "F", Sector: "", ForwardPE: contracts.Float(12)},
		{Symbol: "G", Sector: "Utilities", ForwardPE: contracts.Float(10)},
		{Symbol: "H", Sector: "Utilities", ForwardPE: contracts.Float(11)},
		{Symbol: "I", Sector: "Utilities", ForwardPE: contracts.Float(11)},
	}

	got := ComputeSectorBaselines(records)

	assert.Equal(t, contracts.SectorBaselines{
		"Tech":      25,
		"Utilities": 10.67,
	}, got)

	_, ok := got.Get("Energy")
	assert.False(t, ok, "sector without positive forward P/E has no entry")
}

func TestComputeSectorBaselines_Empty(t *testing.T) {
	assert.Empty(t, ComputeSectorBaselines(nil))
}

func TestScreener_Passes(t *testing.T) {
	s := NewScreener(logger.NewNop())
	rec := passingRecord("OK")

	assert.True(t, s.Passes(&rec, techBaseline))
	assert.Equal(t, "", s.FirstFailure(&rec, techBaseline))
}

func TestScreener_EachPredicate(t *testing.T) {
	s := NewScreener(logger.NewNop())

	tests := []struct {
		name   string
		mutate func(r *contracts.CanonicalRecord)
		want   string
	}{
		{"rsi at 40", func(r *contracts.CanonicalRecord) { r.RSI14 = contracts.Float(40) }, FilterRSI},
		{"rsi absent", func(r *contracts.CanonicalRecord) { r.RSI14 = nil }, FilterRSI},
		{"market cap at 100b", func(r *contracts.CanonicalRecord) { r.MarketCap = contracts.Float(1e11) }, FilterMarketCap},
		{"market cap absent", func(r *contracts.CanonicalRecord) { r.MarketCap = nil }, FilterMarketCap},
		{"rec mean above 2.5", func(r *contracts.CanonicalRecord) { r.RecommendationMean = contracts.Float(2.51) }, FilterRecommendation},
		{"earnings growth zero", func(r *contracts.CanonicalRecord) { r.EarningsGrowth = contracts.Float(0) }, FilterEarningsGrowth},
		{"revenue growth negative", func(r *contracts.CanonicalRecord) { r.RevenueGrowth = contracts.Float(-1) }, FilterRevenueGrowth},
		{"forward pe equals baseline", func(r *contracts.CanonicalRecord) { r.ForwardPE = contracts.Float(25) }, FilterForwardPE},
		{"forward pe absent", func(r *contracts.CanonicalRecord) { r.ForwardPE = nil }, FilterForwardPE},
		{"sector without baseline", func(r *contracts.CanonicalRecord) { r.Sector = "Energy" }, FilterForwardPE},
		{"pct from high at 65", func(r *contracts.CanonicalRecord) { r.PctFrom52WHigh = contracts.Float(65) }, FilterPctFrom52WHigh},
		{"pct from sma at 80", func(r *contracts.CanonicalRecord) { r.PctFromSMA200 = contracts.Float(80) }, FilterPctFromSMA200},
		{"pct from sma absent", func(r *contracts.CanonicalRecord) { r.PctFromSMA200 = nil }, FilterPctFromSMA200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := passingRecord("X")
			tt.mutate(&rec)

			assert.False(t, s.Passes(&rec, techBaseline))
			assert.Equal(t, tt.want, s.FirstFailure(&rec, techBaseline))
		})
	}
}

func TestScreener_Boundaries(t *testing.T) {
	s := NewScreener(logger.NewNop())

	rec := passingRecord("EDGE")
	rec.RecommendationMean = contracts.Float(2.5) // ≤ 2.5 통과
	rec.ForwardPE = contracts.Float(24.99)
	rec.RSI14 = contracts.Float(39.99)

	assert.True(t, s.Passes(&rec, techBaseline))
}

func TestScreener_Screen(t *testing.T) {
	s := NewScreener(logger.NewNop())

	noRSI := passingRecord("B")
	noRSI.RSI14 = nil
	smallCap := passingRecord("C")
	smallCap.MarketCap = contracts.Float(5e10)
	smallCap.RSI14 = nil // 첫 실패만 집계

	records := []contracts.CanonicalRecord{passingRecord("A"), noRSI, smallCap}
	failures, filtered := s.Screen(records, techBaseline)

	assert.Equal(t, []string{"", FilterRSI, FilterRSI}, failures)
	assert.Equal(t, 2, filtered[FilterRSI])
	assert.Equal(t, 0, filtered[FilterMarketCap])
	assert.Len(t, filtered, len(DefaultPredicates))
}

func TestDefaultPredicates_Table(t *testing.T) {
	require.Len(t, DefaultPredicates, 8)

	assert.Equal(t, []string{
		FilterRSI,
		FilterMarketCap,
		FilterRecommendation,
		FilterEarningsGrowth,
		FilterRevenueGrowth,
		FilterForwardPE,
		FilterPctFrom52WHigh,
		FilterPctFromSMA200,
	}, NewScreener(logger.NewNop()).Names())

	relative := 0
	for _, p := range DefaultPredicates {
		if p.SectorRelative {
			relative++
			assert.Equal(t, FilterForwardPE, p.Name)
		}
	}
	assert.Equal(t, 1, relative)
}

// 조건 순서를 바꿔도 통과 여부는 같아야 함 (AND 결합)
func TestScreener_OrderIndependentVerdict(t *testing.T) {
	reversed := make([]Predicate, len(DefaultPredicates))
	for i, p := range DefaultPredicates {
		reversed[len(DefaultPredicates)-1-i] = p
	}
	forward := NewScreener(logger.NewNop())
	backward := &Screener{predicates: reversed, logger: logger.NewNop()}

	variants := []contracts.CanonicalRecord{passingRecord("A")}
	for _, p := range DefaultPredicates {
		rec := passingRecord(p.Name)
		*p.Field(&rec) = 0 // 0 은 대부분의 조건을 깨고, 일부는 통과시킴
		variants = append(variants, rec)
	}

	for i := range variants {
		assert.Equal(t,
			forward.Passes(&variants[i], techBaseline),
			backward.Passes(&variants[i], techBaseline),
			variants[i].Symbol)
	}
}

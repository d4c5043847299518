package contracts

import "time"

// SectorBaselines maps sector name to mean positive forward P/E (2 dp)
type SectorBaselines map[string]float64

// Get returns the baseline for a sector and whether it exists
func (b SectorBaselines) Get(sector string) (float64, bool) {
	v, ok := b[sector]
	return v, ok
}

// ScreeningResult is a record plus its verdict
type ScreeningResult struct {
	CanonicalRecord
	Passed       bool   `json:"passed_filter"`
	FailedFilter string `json:"failed_filter,omitempty"` // 진단용: 첫 번째 실패 필터
}

// MarketRegime is the index trend context shown next to the results
type MarketRegime struct {
	SP500Price       *float64 `json:"sp500_price"`
	SP500SMA200      *float64 `json:"sp500_200dma"`
	SP500AboveSMA200 *bool    `json:"sp500_above_200dma"`
}

// ReportMetadata summarizes one screening run
type ReportMetadata struct {
	GeneratedAt time.Time      `json:"collected_at"`
	TotalCount  int            `json:"total_collected"`
	PassedCount int            `json:"passed_filter"`
	Rejections  map[string]int `json:"filter_rejections"` // 첫 번째 실패 필터 기준
	MarketRegime
}

// Report is the S3 output persisted and served to the dashboard
// ⭐ SSOT: S3 → 저장/API 결과 전달
type Report struct {
	Metadata        ReportMetadata    `json:"metadata"`
	SectorBaselines SectorBaselines   `json:"sector_averages"`
	Results         []ScreeningResult `json:"stocks"`
}

// Passed returns passing results in report order
func (r *Report) Passed() []ScreeningResult {
	out := make([]ScreeningResult, 0, r.Metadata.PassedCount)
	for _, res := range r.Results {
		if res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Find returns the result for a symbol
func (r *Report) Find(symbol string) (ScreeningResult, bool) {
	for _, res := range r.Results {
		if res.Symbol == symbol {
			return res, true
		}
	}
	return ScreeningResult{}, false
}

// Sectors returns per-sector totals: screened and passed
func (r *Report) Sectors() map[string]SectorSummary {
	out := make(map[string]SectorSummary)
	for _, res := range r.Results {
		s := out[res.Sector]
		s.Total++
		if res.Passed {
			s.Passed++
		}
		out[res.Sector] = s
	}
	for name, s := range out {
		if v, ok := r.SectorBaselines.Get(name); ok {
			s.ForwardPEBaseline = Float(v)
		}
		out[name] = s
	}
	return out
}

// SectorSummary is one sector's row in the sectors view
type SectorSummary struct {
	Total             int      `json:"total"`
	Passed            int      `json:"passed"`
	ForwardPEBaseline *float64 `json:"forward_pe_baseline"`
}

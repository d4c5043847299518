package yahoo

import (
	"github.com/wonny/sp500-screener/internal/contracts"
)

// Ineligibility reasons
const (
	ReasonNotEquity   = "not_equity"
	ReasonOTCExchange = "otc_exchange"
)

// otcExchanges are venues whose listings are never screened
var otcExchanges = map[string]bool{
	"PNK": true,
	"OTC": true,
}

// Snapshot is the merged quote and fundamentals of one symbol
type Snapshot struct {
	Symbol            string             `json:"symbol"`
	QuoteType         string             `json:"quote_type"`
	Exchange          string             `json:"exchange"`
	Fundamentals      map[string]float64 `json:"fundamentals"`
	RecommendationKey string             `json:"recommendation_key"`
}

// Eligible reports whether the listing can be screened and, if not, why
func (s *Snapshot) Eligible() (bool, string) {
	if s.QuoteType != "EQUITY" {
		return false, ReasonNotEquity
	}
	if otcExchanges[s.Exchange] {
		return false, ReasonOTCExchange
	}
	return true, ""
}

// Raw attaches the snapshot and history to a constituent
func (s *Snapshot) Raw(c contracts.Constituent, history contracts.PriceSeries) contracts.RawInstrument {
	return contracts.RawInstrument{
		Constituent:       c,
		Fundamentals:      s.Fundamentals,
		RecommendationKey: s.RecommendationKey,
		History:           history,
	}
}

// set stores v under key unless it is zero; Yahoo reports missing numbers as 0
func (s *Snapshot) set(key string, v float64) {
	if v == 0 {
		return
	}
	if s.Fundamentals == nil {
		s.Fundamentals = make(map[string]float64)
	}
	s.Fundamentals[key] = v
}

// setRaw stores a quoteSummary value when present
func (s *Snapshot) setRaw(key string, v rawValue) {
	if v.Raw == nil {
		return
	}
	if s.Fundamentals == nil {
		s.Fundamentals = make(map[string]float64)
	}
	s.Fundamentals[key] = *v.Raw
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper
type rawValue struct {
	Raw *float64 `json:"raw"`
}

// quoteSummaryResponse is the subset of /v10/finance/quoteSummary we read
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	FinancialData struct {
		CurrentPrice       rawValue `json:"currentPrice"`
		RecommendationMean rawValue `json:"recommendationMean"`
		RecommendationKey  string   `json:"recommendationKey"`
		EarningsGrowth     rawValue `json:"earningsGrowth"`
		RevenueGrowth      rawValue `json:"revenueGrowth"`
	} `json:"financialData"`
	SummaryDetail struct {
		DividendYield rawValue `json:"dividendYield"`
		Beta          rawValue `json:"beta"`
		ForwardPE     rawValue `json:"forwardPE"`
		TrailingPE    rawValue `json:"trailingPE"`
	} `json:"summaryDetail"`
}

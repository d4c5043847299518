package contracts

// Fundamental field keys of RawInstrument.Fundamentals.
// A missing key means the source did not provide the value.
const (
	FieldCurrentPrice       = "current_price"
	FieldMarketCap          = "market_cap"
	FieldForwardPE          = "forward_pe"
	FieldTrailingPE         = "trailing_pe"
	FieldRecommendationMean = "recommendation_mean"
	FieldEarningsGrowth     = "earnings_growth" // fraction, 0.12 = 12%
	FieldRevenueGrowth      = "revenue_growth"  // fraction
	FieldDividendYield      = "dividend_yield"  // fraction
	FieldBeta               = "beta"
	FieldFiftyTwoWeekHigh   = "fifty_two_week_high"
)

// RawInstrument is what collection hands to the signal stage for one symbol
// ⭐ SSOT: S0 → S2 원천 데이터 전달
type RawInstrument struct {
	Constituent
	Fundamentals      map[string]float64 `json:"fundamentals"`
	RecommendationKey string             `json:"recommendation_key"`
	History           PriceSeries        `json:"history"`
}

// Fundamental returns a fundamentals value and whether the source provided it
func (r RawInstrument) Fundamental(key string) (float64, bool) {
	v, ok := r.Fundamentals[key]
	return v, ok
}

// InstrumentIndicators holds derived technicals; nil means not computable
type InstrumentIndicators struct {
	RSI14          *float64 `json:"rsi"`
	SMA200         *float64 `json:"sma_200"`
	PctFromSMA200  *float64 `json:"pct_from_200dma"`
	PctFrom52WHigh *float64 `json:"pct_from_high"`
}

// CanonicalRecord is the normalized per-instrument row screened by S3
// ⭐ SSOT: S2 → S3 종목 레코드 (nil = 값 없음, sentinel 숫자 금지)
type CanonicalRecord struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	SubIndustry string `json:"sub_industry"`

	CurrentPrice       *float64 `json:"current_price"`
	MarketCap          *float64 `json:"market_cap"`
	ForwardPE          *float64 `json:"forward_pe"`
	TrailingPE         *float64 `json:"trailing_pe"`
	EarningsGrowth     *float64 `json:"earnings_growth"` // percent
	RevenueGrowth      *float64 `json:"revenue_growth"`  // percent
	FiftyTwoWeekHigh   *float64 `json:"fifty_two_week_high"`
	RecommendationKey  string   `json:"recommendation"`
	RecommendationMean *float64 `json:"recommendation_mean"`
	DividendYield      *float64 `json:"dividend_yield"` // percent
	Beta               *float64 `json:"beta"`

	InstrumentIndicators
}

// Float returns a pointer to v; shorthand for building records in code and tests
func Float(v float64) *float64 {
	return &v
}

package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/httputil"
	"github.com/wonny/sp500-screener/pkg/logger"
	"github.com/wonny/sp500-screener/pkg/numeric"
	"github.com/wonny/sp500-screener/pkg/redis"
)

const (
	// DefaultBaseURL serves the quoteSummary endpoint
	DefaultBaseURL = "https://query2.finance.yahoo.com"

	summaryModules = "financialData,summaryDetail"
)

// quoteFunc and historyFunc are swapped out in tests; finance-go talks to
// its own package-level backend.
type (
	quoteFunc   func(symbol string) (*finance.Equity, error)
	historyFunc func(symbol string, from, to time.Time) ([]contracts.PricePoint, error)
)

// Client fetches quotes, fundamentals and daily history from Yahoo Finance
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	cacheTTL   time.Duration

	quote   quoteFunc
	history historyFunc
}

// NewClient creates a new Yahoo Finance client. cache may be nil.
func NewClient(httpClient *httputil.Client, baseURL string, cache *redis.Cache, cacheTTL time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cacheTTL <= 0 {
		cacheTTL = redis.TTLLong
	}
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.WithField("module", "yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		cacheTTL:   cacheTTL,
		quote:      equity.Get,
		history:    chartHistory,
	}
}

// FetchSnapshot returns the quote merged with quoteSummary fundamentals
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	var snap Snapshot
	if found, err := c.cache.Get(ctx, redis.QuoteKey(symbol), &snap); err != nil {
		c.logger.WithSymbol(symbol).WithError(err).Warn("Quote cache read failed")
	} else if found {
		return &snap, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eq, err := c.quote(symbol)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if eq == nil {
		return nil, fmt.Errorf("quote %s: no result", symbol)
	}

	snap = Snapshot{
		Symbol:    symbol,
		QuoteType: string(eq.QuoteType),
		Exchange:  eq.ExchangeID,
	}
	snap.set(contracts.FieldCurrentPrice, eq.RegularMarketPrice)
	snap.set(contracts.FieldFiftyTwoWeekHigh, eq.FiftyTwoWeekHigh)
	snap.set(contracts.FieldMarketCap, float64(eq.MarketCap))
	snap.set(contracts.FieldForwardPE, eq.ForwardPE)
	snap.set(contracts.FieldTrailingPE, eq.TrailingPE)

	// 비대상 종목은 quoteSummary 호출 생략
	if ok, _ := snap.Eligible(); ok {
		if err := c.mergeSummary(ctx, &snap); err != nil {
			return nil, err
		}
	}

	if err := c.cache.Set(ctx, redis.QuoteKey(symbol), &snap, c.cacheTTL); err != nil {
		c.logger.WithSymbol(symbol).WithError(err).Warn("Quote cache write failed")
	}

	return &snap, nil
}

// mergeSummary overlays financialData and summaryDetail onto the snapshot
func (c *Client) mergeSummary(ctx context.Context, snap *Snapshot) error {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		c.baseURL, url.PathEscape(snap.Symbol), url.QueryEscape(summaryModules))

	var resp quoteSummaryResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return fmt.Errorf("quoteSummary %s: %w", snap.Symbol, err)
	}
	if e := resp.QuoteSummary.Error; e != nil {
		return fmt.Errorf("quoteSummary %s: %s: %s", snap.Symbol, e.Code, e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return fmt.Errorf("quoteSummary %s: empty result", snap.Symbol)
	}

	r := resp.QuoteSummary.Result[0]
	snap.setRaw(contracts.FieldCurrentPrice, r.FinancialData.CurrentPrice)
	snap.setRaw(contracts.FieldRecommendationMean, r.FinancialData.RecommendationMean)
	snap.setRaw(contracts.FieldEarningsGrowth, r.FinancialData.EarningsGrowth)
	snap.setRaw(contracts.FieldRevenueGrowth, r.FinancialData.RevenueGrowth)
	snap.setRaw(contracts.FieldDividendYield, r.SummaryDetail.DividendYield)
	snap.setRaw(contracts.FieldBeta, r.SummaryDetail.Beta)
	snap.setRaw(contracts.FieldForwardPE, r.SummaryDetail.ForwardPE)
	snap.setRaw(contracts.FieldTrailingPE, r.SummaryDetail.TrailingPE)
	snap.RecommendationKey = r.FinancialData.RecommendationKey

	return nil
}

// FetchHistory returns daily closes in [from, to], ascending
func (c *Client) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	series := contracts.PriceSeries{Symbol: symbol}

	key := redis.HistoryKey(symbol, to)
	if found, err := c.cache.Get(ctx, key, &series.Points); err != nil {
		c.logger.WithSymbol(symbol).WithError(err).Warn("History cache read failed")
	} else if found {
		return series, nil
	}

	if err := ctx.Err(); err != nil {
		return series, err
	}

	points, err := c.history(symbol, from, to)
	if err != nil {
		return series, fmt.Errorf("history %s: %w", symbol, err)
	}
	series.Points = points

	if len(points) > 0 {
		if err := c.cache.Set(ctx, key, points, c.cacheTTL); err != nil {
			c.logger.WithSymbol(symbol).WithError(err).Warn("History cache write failed")
		}
	}

	return series, nil
}

// chartHistory reads daily bars through finance-go. Adjusted closes are used
// when Yahoo provides them.
func chartHistory(symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&from),
		End:      datetime.New(&to),
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	points := make([]contracts.PricePoint, 0, 260)
	for iter.Next() {
		bar := iter.Bar()

		px, ok := numeric.FromDecimal(bar.AdjClose)
		if !ok || px == 0 {
			px, ok = numeric.FromDecimal(bar.Close)
		}
		if !ok || px == 0 {
			continue
		}

		points = append(points, contracts.PricePoint{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC().Truncate(24 * time.Hour),
			Close: px,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return dedupeByDate(points), nil
}

// dedupeByDate keeps the last bar per day; Yahoo sometimes repeats the live bar
func dedupeByDate(points []contracts.PricePoint) []contracts.PricePoint {
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/internal/external/yahoo"
	"github.com/wonny/sp500-screener/pkg/logger"
	"github.com/wonny/sp500-screener/pkg/metrics"
)

// Failure reasons reported per symbol
const (
	ReasonFetchError     = "fetch_error"
	ReasonNoHistory      = "no_history"
	ReasonInvalidHistory = "invalid_history"
	ReasonCanceled       = "canceled"
)

// Source is the market data provider the collector pulls from
type Source interface {
	FetchSnapshot(ctx context.Context, symbol string) (*yahoo.Snapshot, error)
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error)
}

// Config holds collector configuration
type Config struct {
	Workers     int     // Number of concurrent workers
	RPS         float64 // 초당 심볼 처리 수 (0 = 제한 없음)
	HistoryDays int     // 일봉 조회 기간
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	Symbol     string
	PriceCount int
	Reason     string // 비어 있으면 성공
	Error      error
}

// OK reports whether the symbol was collected
func (r FetchResult) OK() bool {
	return r.Reason == ""
}

// Collector orchestrates data collection from external sources
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source  Source
	cfg     Config
	limiter *rate.Limiter
	metrics *metrics.Recorder
	logger  *logger.Logger
	now     func() time.Time

	mu          sync.Mutex
	lastResults []FetchResult
}

// NewCollector creates a new Collector instance. rec may be nil.
func NewCollector(source Source, cfg Config, rec *metrics.Recorder, log *logger.Logger) *Collector {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.HistoryDays < 1 {
		cfg.HistoryDays = 365
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Workers)
	}

	return &Collector{
		source:  source,
		cfg:     cfg,
		limiter: limiter,
		metrics: rec,
		logger:  log.WithField("module", "collector"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ contracts.InstrumentCollector = (*Collector)(nil)

// Collect fetches every constituent and returns the usable ones in universe order.
// Per-symbol failures are dropped and kept in LastResults.
func (c *Collector) Collect(ctx context.Context, universe *contracts.Universe) ([]contracts.RawInstrument, error) {
	raws, results, err := c.CollectWithResults(ctx, universe)

	c.mu.Lock()
	c.lastResults = results
	c.mu.Unlock()

	return raws, err
}

// LastResults returns the per-symbol outcome of the latest Collect call
func (c *Collector) LastResults() []FetchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResults
}

// CollectWithResults is Collect plus the per-symbol outcome, aligned with universe order
func (c *Collector) CollectWithResults(ctx context.Context, universe *contracts.Universe) ([]contracts.RawInstrument, []FetchResult, error) {
	if universe == nil {
		return nil, nil, fmt.Errorf("%w: nil universe", contracts.ErrInvalidInput)
	}

	to := c.now()
	from := to.AddDate(0, 0, -c.cfg.HistoryDays)
	n := universe.Count()

	c.logger.WithFields(map[string]interface{}{
		"stock_count": n,
		"from":        from.Format("2006-01-02"),
		"to":          to.Format("2006-01-02"),
		"workers":     c.cfg.Workers,
	}).Info("Starting collection")

	// 결과 슬롯은 유니버스 순서 그대로
	raws := make([]*contracts.RawInstrument, n)
	results := make([]FetchResult, n)

	var wg sync.WaitGroup
	idxCh := make(chan int, n)

	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range idxCh {
				raw, res := c.fetchOne(ctx, workerID, universe.Constituents[idx], from, to)
				raws[idx] = raw
				results[idx] = res
			}
		}(i)
	}

	for i := 0; i < n; i++ {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	collected := make([]contracts.RawInstrument, 0, n)
	failed := 0
	for i, res := range results {
		if !res.OK() {
			failed++
			c.metrics.RecordCollectFailure(res.Reason)
			continue
		}
		collected = append(collected, *raws[i])
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(collected),
		"failed":  failed,
		"total":   n,
	}).Info("Collection completed")

	if err := ctx.Err(); err != nil {
		return nil, results, fmt.Errorf("collection interrupted: %w", err)
	}

	return collected, results, nil
}

// fetchOne collects a single constituent
func (c *Collector) fetchOne(ctx context.Context, workerID int, con contracts.Constituent, from, to time.Time) (*contracts.RawInstrument, FetchResult) {
	res := FetchResult{Symbol: con.Symbol}
	log := c.logger.WithSymbol(con.Symbol).WithField("worker", workerID)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			res.Reason, res.Error = ReasonCanceled, err
			return nil, res
		}
	}
	if err := ctx.Err(); err != nil {
		res.Reason, res.Error = ReasonCanceled, err
		return nil, res
	}

	snap, err := c.source.FetchSnapshot(ctx, con.Symbol)
	if err != nil {
		res.Reason, res.Error = failureReason(err), err
		log.WithError(err).Warn("Failed to fetch quote")
		return nil, res
	}

	if ok, reason := snap.Eligible(); !ok {
		res.Reason = reason
		log.WithField("reason", reason).Debug("Skipped ineligible listing")
		return nil, res
	}

	series, err := c.source.FetchHistory(ctx, con.Symbol, from, to)
	if err != nil {
		res.Reason, res.Error = failureReason(err), err
		log.WithError(err).Warn("Failed to fetch history")
		return nil, res
	}

	res.PriceCount = series.Len()
	if series.Len() == 0 {
		res.Reason = ReasonNoHistory
		log.Warn("Empty price history")
		return nil, res
	}
	if err := series.Validate(); err != nil {
		res.Reason, res.Error = ReasonInvalidHistory, err
		log.WithError(err).Warn("Invalid price history")
		return nil, res
	}

	raw := snap.Raw(con, series)
	log.WithField("count", res.PriceCount).Debug("Fetched instrument")
	return &raw, res
}

// FetchIndex returns the daily history of a benchmark index
func (c *Collector) FetchIndex(ctx context.Context, symbol string) (contracts.PriceSeries, error) {
	to := c.now()
	from := to.AddDate(0, 0, -c.cfg.HistoryDays)

	series, err := c.source.FetchHistory(ctx, symbol, from, to)
	if err != nil {
		return series, fmt.Errorf("fetch index %s: %w", symbol, err)
	}
	if err := series.Validate(); err != nil {
		return contracts.PriceSeries{Symbol: symbol}, err
	}
	return series, nil
}

func failureReason(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonCanceled
	}
	return ReasonFetchError
}

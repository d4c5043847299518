package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/wonny/sp500-screener/internal/api"
	"github.com/wonny/sp500-screener/internal/brain"
	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/internal/export"
	"github.com/wonny/sp500-screener/internal/external/wikipedia"
	"github.com/wonny/sp500-screener/internal/external/yahoo"
	"github.com/wonny/sp500-screener/internal/s0_data/collector"
	"github.com/wonny/sp500-screener/internal/s0_data/quality"
	"github.com/wonny/sp500-screener/internal/s1_universe"
	"github.com/wonny/sp500-screener/internal/s2_signals"
	"github.com/wonny/sp500-screener/internal/selection"
	"github.com/wonny/sp500-screener/pkg/config"
	"github.com/wonny/sp500-screener/pkg/database"
	"github.com/wonny/sp500-screener/pkg/httputil"
	"github.com/wonny/sp500-screener/pkg/logger"
	"github.com/wonny/sp500-screener/pkg/metrics"
	"github.com/wonny/sp500-screener/pkg/redis"
)

// appOptions tweaks wiring per command
type appOptions struct {
	UniverseFile string // --universe-file, overrides UNIVERSE_FILE
	WithHub      bool   // api 모드: websocket 으로 리포트 전파
}

// app holds every wired component. Optional parts are nil when disabled.
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	metrics *metrics.Recorder

	hub             *api.Hub
	store           *export.FileStore
	reports         *selection.Repository
	universes       *s1_universe.Repository
	universeBuilder *s1_universe.Builder
	collector       *collector.Collector
	orchestrator    *brain.Orchestrator
}

// loadConfig loads config and applies global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 3. Connect to database (optional)
	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Info("DATABASE_URL not set, Postgres archive disabled")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		a.reports = selection.NewRepository(db.Pool)
		a.universes = s1_universe.NewRepository(db.Pool)
		log.Info("Connected to database")
	}

	// 4. Connect to Redis (disabled client is a no-op)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	cache := redis.NewCache(rc, "screener")

	// 5. External clients
	wikiClient := wikipedia.NewClient(httputil.New(log), cfg.Universe.URL, log)
	yahooHTTP := httputil.New(log).WithRateLimit(cfg.Yahoo.RPS, 1)
	yahooClient := yahoo.NewClient(yahooHTTP, cfg.Yahoo.BaseURL, cache, cfg.Yahoo.CacheTTL, log)

	// 6. Stage components
	file := cfg.Universe.File
	if opts.UniverseFile != "" {
		file = opts.UniverseFile
	}
	a.universeBuilder = s1_universe.NewBuilder(wikiClient, file, cache, log)
	a.collector = collector.NewCollector(yahooClient, collector.Config{
		Workers:     cfg.Yahoo.Workers,
		RPS:         cfg.Yahoo.RPS,
		HistoryDays: cfg.Yahoo.HistoryDays,
	}, a.metrics, log)

	signalBuilder := s2_signals.NewBuilder(
		s2_signals.NewIndicatorEngine(runtime.NumCPU(), log),
		s2_signals.NewNormalizer(),
		log,
	)
	pipeline := selection.NewPipeline(selection.NewScreener(log), log)
	a.store = export.NewFileStore(cfg.Output.Paths, log)

	// nil 포인터를 인터페이스에 넣지 않도록 분기
	var archive contracts.ReportStore
	if a.reports != nil {
		archive = a.reports
	}
	var publisher contracts.ReportPublisher
	if opts.WithHub {
		a.hub = api.NewHub(log)
		publisher = a.hub
	}

	a.orchestrator = brain.NewOrchestrator(
		a.universeBuilder,
		a.collector,
		quality.NewQualityGate(quality.DefaultConfig()),
		signalBuilder,
		pipeline,
		a.store,
		archive,
		a.universeStore(),
		publisher,
		cfg.Yahoo.IndexSymbol,
		a.metrics,
		log,
	)

	return a, nil
}

// universeStore returns the snapshot store or a nil interface
func (a *app) universeStore() brain.UniverseStore {
	if a.universes == nil {
		return nil
	}
	return a.universes
}

// Close releases connections
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

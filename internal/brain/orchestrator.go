package brain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/internal/export"
	"github.com/wonny/sp500-screener/internal/s0_data/quality"
	"github.com/wonny/sp500-screener/internal/s2_signals"
	"github.com/wonny/sp500-screener/internal/selection"
	"github.com/wonny/sp500-screener/pkg/logger"
	"github.com/wonny/sp500-screener/pkg/metrics"
)

// UniverseStore keeps universe snapshots
type UniverseStore interface {
	SaveUniverse(ctx context.Context, universe *contracts.Universe) error
}

// Orchestrator coordinates the screening pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	// Stage components
	universeBuilder contracts.UniverseBuilder
	collector       contracts.InstrumentCollector
	qualityGate     *quality.QualityGate
	signalBuilder   contracts.SignalBuilder
	pipeline        *selection.Pipeline

	// Output
	store        contracts.ReportStore // 필수 (JSON 파일)
	archive      contracts.ReportStore // 선택 (Postgres), 실패해도 run 유지
	universeRepo UniverseStore         // 선택
	publisher    contracts.ReportPublisher

	indexSymbol string
	metrics     *metrics.Recorder
	logger      *logger.Logger

	mu      sync.Mutex
	running bool
	lastRun *RunResult
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID   string
	DryRun  bool   // If true, nothing is persisted or published
	CSVPath string // 비어 있으면 CSV 생략
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string                     `json:"run_id"`
	StartedAt       time.Time                  `json:"started_at"`
	Success         bool                       `json:"success"`
	Error           string                     `json:"error,omitempty"`
	DryRun          bool                       `json:"dry_run"`
	CompletedStages []contracts.PipelineResult `json:"stages"`
	Quality         *quality.Snapshot          `json:"quality,omitempty"`
	Universe        *contracts.Universe        `json:"-"`
	Report          *contracts.Report          `json:"-"`
	TotalCount      int                        `json:"total_collected"`
	PassedCount     int                        `json:"passed_filter"`
	Duration        time.Duration              `json:"duration"`
}

// ErrAlreadyRunning is returned when a run is requested while one is in flight
var ErrAlreadyRunning = errors.New("screening run already in progress")

// NewOrchestrator creates a new orchestrator. archive, universeRepo,
// publisher and rec may be nil.
func NewOrchestrator(
	universeBuilder contracts.UniverseBuilder,
	collector contracts.InstrumentCollector,
	qualityGate *quality.QualityGate,
	signalBuilder contracts.SignalBuilder,
	pipeline *selection.Pipeline,
	store contracts.ReportStore,
	archive contracts.ReportStore,
	universeRepo UniverseStore,
	publisher contracts.ReportPublisher,
	indexSymbol string,
	rec *metrics.Recorder,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		universeBuilder: universeBuilder,
		collector:       collector,
		qualityGate:     qualityGate,
		signalBuilder:   signalBuilder,
		pipeline:        pipeline,
		store:           store,
		archive:         archive,
		universeRepo:    universeRepo,
		publisher:       publisher,
		indexSymbol:     indexSymbol,
		metrics:         rec,
		logger:          log.WithField("module", "brain"),
	}
}

// LastRun returns the most recent run result, or nil
func (o *Orchestrator) LastRun() *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastRun
}

// Running reports whether a run is in flight
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Run executes the complete pipeline
// S1 → S0 → S2 → S3 → S4
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	o.running = true
	o.mu.Unlock()

	if config.RunID == "" {
		config.RunID = GenerateRunID()
	}

	startTime := time.Now()
	result := &RunResult{
		RunID:           config.RunID,
		StartedAt:       startTime.UTC(),
		DryRun:          config.DryRun,
		CompletedStages: make([]contracts.PipelineResult, 0, len(contracts.AllStages())),
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":  config.RunID,
		"dry_run": config.DryRun,
	}).Info("Starting pipeline run")

	err := o.run(ctx, config, result)

	result.Duration = time.Since(startTime)
	result.Success = err == nil
	status := "success"
	if err != nil {
		status = "failed"
		result.Error = err.Error()
		o.logger.WithError(err).WithField("run_id", config.RunID).Error("Pipeline run failed")
	} else {
		o.logger.WithFields(map[string]interface{}{
			"run_id":   config.RunID,
			"duration": result.Duration.Seconds(),
			"stages":   len(result.CompletedStages),
			"passed":   result.PassedCount,
		}).Info("Pipeline run completed successfully")
	}
	o.metrics.RecordRun(status, result.Duration)

	o.mu.Lock()
	o.running = false
	o.lastRun = result
	o.mu.Unlock()

	return result, err
}

func (o *Orchestrator) run(ctx context.Context, config RunConfig, result *RunResult) error {
	// S1: Universe
	universe, err := stage(o, result, contracts.StageUniverse, 0, func() (*contracts.Universe, int, error) {
		u, err := o.runS1(ctx, config)
		if err != nil {
			return nil, 0, err
		}
		return u, u.Count(), nil
	})
	if err != nil {
		return err
	}
	result.Universe = universe

	// S0: Data
	var index contracts.PriceSeries
	raws, err := stage(o, result, contracts.StageData, universe.Count(), func() ([]contracts.RawInstrument, int, error) {
		raws, err := o.collector.Collect(ctx, universe)
		if err != nil {
			return nil, 0, fmt.Errorf("collect: %w", err)
		}
		result.Quality = o.checkQuality(universe, raws)
		index = o.fetchIndex(ctx)
		return raws, len(raws), nil
	})
	if err != nil {
		return err
	}

	// S2: Signals
	records, err := stage(o, result, contracts.StageSignals, len(raws), func() ([]contracts.CanonicalRecord, int, error) {
		records, err := o.signalBuilder.Build(ctx, raws)
		if err != nil {
			return nil, 0, fmt.Errorf("signal build: %w", err)
		}
		return records, len(records), nil
	})
	if err != nil {
		return err
	}

	// S3: Screening
	report, err := stage(o, result, contracts.StageScreener, len(records), func() (*contracts.Report, int, error) {
		report, err := o.pipeline.Run(records)
		if err != nil {
			return nil, 0, fmt.Errorf("screening: %w", err)
		}
		report.Metadata.MarketRegime = s2_signals.MarketRegimeFrom(index)
		o.metrics.RecordScreen(report.Metadata.TotalCount, report.Metadata.PassedCount, report.Metadata.Rejections)
		return report, report.Metadata.PassedCount, nil
	})
	if err != nil {
		return err
	}
	result.Report = report
	result.TotalCount = report.Metadata.TotalCount
	result.PassedCount = report.Metadata.PassedCount

	// S4: Publish (skip if dry run)
	if config.DryRun {
		o.logger.Info("Skipping S4:Publish (dry run mode)")
		return nil
	}
	_, err = stage(o, result, contracts.StagePublish, 1, func() (struct{}, int, error) {
		return struct{}{}, 1, o.runS4(ctx, config, report)
	})
	return err
}

// stage runs fn and appends its PipelineResult
func stage[T any](o *Orchestrator, result *RunResult, s contracts.Stage, in int, fn func() (T, int, error)) (T, error) {
	o.logger.WithField("stage", s.String()).Infof("Running %s: %s", s.ShortName(), s.Description())

	started := time.Now()
	out, n, err := fn()

	pr := contracts.PipelineResult{
		Stage:       s,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: n,
		Duration:    time.Since(started).Milliseconds(),
	}
	if err != nil {
		pr.Error = err.Error()
		result.CompletedStages = append(result.CompletedStages, pr)
		return out, fmt.Errorf("%s failed: %w", s.ShortName(), err)
	}
	result.CompletedStages = append(result.CompletedStages, pr)

	o.logger.WithFields(map[string]interface{}{
		"stage":  s.String(),
		"input":  in,
		"output": n,
	}).Info(s.ShortName() + " completed")

	return out, nil
}

// runS1 executes S1: Universe
func (o *Orchestrator) runS1(ctx context.Context, config RunConfig) (*contracts.Universe, error) {
	universe, err := o.universeBuilder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("universe build: %w", err)
	}

	if o.universeRepo != nil && !config.DryRun {
		if err := o.universeRepo.SaveUniverse(ctx, universe); err != nil {
			o.logger.WithError(err).Warn("Failed to save universe snapshot")
		}
	}

	return universe, nil
}

func (o *Orchestrator) checkQuality(universe *contracts.Universe, raws []contracts.RawInstrument) *quality.Snapshot {
	if o.qualityGate == nil {
		return nil
	}

	snap := o.qualityGate.Check(universe, raws)
	log := o.logger.WithFields(map[string]interface{}{
		"quality_score": snap.QualityScore,
		"collected":     snap.Coverage[quality.CoverageCollected],
		"passed":        snap.Passed,
	})
	if snap.Passed {
		log.Info("Quality gate passed")
	} else {
		log.Warn("Quality gate below threshold")
	}
	return snap
}

// fetchIndex loads the benchmark series; failure leaves the regime absent
func (o *Orchestrator) fetchIndex(ctx context.Context) contracts.PriceSeries {
	if o.indexSymbol == "" {
		return contracts.PriceSeries{}
	}

	series, err := o.collector.FetchIndex(ctx, o.indexSymbol)
	if err != nil {
		o.logger.WithError(err).WithField("symbol", o.indexSymbol).Warn("Index data unavailable")
		return contracts.PriceSeries{Symbol: o.indexSymbol}
	}
	return series
}

// runS4 executes S4: persist and publish
func (o *Orchestrator) runS4(ctx context.Context, config RunConfig, report *contracts.Report) error {
	if err := o.store.Save(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if config.CSVPath != "" {
		if err := export.WriteCSVFile(config.CSVPath, report); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		o.logger.WithField("path", config.CSVPath).Info("CSV written")
	}

	if o.archive != nil {
		if err := o.archive.Save(ctx, report); err != nil {
			o.logger.WithError(err).Warn("Failed to archive report")
		}
	}

	if o.publisher != nil {
		o.publisher.Publish(report)
	}

	return nil
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}

package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/sp500-screener/internal/brain"
	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// UniverseJob refreshes the constituent list ahead of the screening run
// ⭐ SSOT: Universe 갱신 스케줄은 이 Job에서만
type UniverseJob struct {
	builder contracts.UniverseBuilder
	store   brain.UniverseStore // nil 이면 스냅샷 저장 생략
	logger  *logger.Logger
}

// NewUniverseJob creates a new universe job
func NewUniverseJob(builder contracts.UniverseBuilder, store brain.UniverseStore, log *logger.Logger) *UniverseJob {
	return &UniverseJob{
		builder: builder,
		store:   store,
		logger:  log,
	}
}

// Name returns the job name
func (j *UniverseJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (Tue-Sat 05:00, before the screening run)
func (j *UniverseJob) Schedule() string {
	return "0 0 5 * * 2-6" // with seconds
}

// Run rebuilds the universe, which also warms the constituent cache
func (j *UniverseJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled universe refresh")

	universe, err := j.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	if j.store != nil {
		if err := j.store.SaveUniverse(ctx, universe); err != nil {
			return fmt.Errorf("save universe: %w", err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"source":         universe.Source,
		"total_count":    universe.TotalCount,
		"included_count": universe.Count(),
		"excluded_count": len(universe.Excluded),
	}).Info("Universe refreshed successfully")

	return nil
}

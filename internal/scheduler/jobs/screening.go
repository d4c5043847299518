package jobs

import (
	"context"
	"errors"

	"github.com/wonny/sp500-screener/internal/brain"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// Runner runs the screening pipeline
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// ScreeningJob runs the full S1 → S4 pipeline on schedule
type ScreeningJob struct {
	runner   Runner
	schedule string
	csvPath  string
	logger   *logger.Logger
}

// NewScreeningJob creates a new screening job
func NewScreeningJob(runner Runner, schedule, csvPath string, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		runner:   runner,
		schedule: schedule,
		csvPath:  csvPath,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "screening_run"
}

// Schedule returns the cron schedule
func (j *ScreeningJob) Schedule() string {
	return j.schedule
}

// Run executes one screening run. A run already in flight counts as done.
func (j *ScreeningJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx, brain.RunConfig{
		RunID:   brain.GenerateRunID(),
		CSVPath: j.csvPath,
	})
	if errors.Is(err, brain.ErrAlreadyRunning) {
		j.logger.Warn("Screening run already in progress, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"total":  result.TotalCount,
		"passed": result.PassedCount,
	}).Info("Scheduled screening run finished")

	return nil
}

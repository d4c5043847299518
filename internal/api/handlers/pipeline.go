package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wonny/sp500-screener/internal/brain"
	"github.com/wonny/sp500-screener/internal/selection"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// RunLister lists archived runs
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]selection.RunSummary, error)
}

// PipelineRunner is the orchestrator surface the API needs
type PipelineRunner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
	LastRun() *brain.RunResult
	Running() bool
}

// PipelineHandler handles run status and manual triggers
// ⭐ SSOT: 파이프라인 API 핸들러는 여기서만
type PipelineHandler struct {
	runner PipelineRunner
	runs   RunLister // nil 이면 DB 비활성
	logger *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler. runs may be nil.
func NewPipelineHandler(runner PipelineRunner, runs RunLister, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner: runner,
		runs:   runs,
		logger: log,
	}
}

// GetStatus returns the in-flight flag and the last run
// GET /api/status
func (h *PipelineHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":  h.runner.Running(),
		"last_run": h.runner.LastRun(),
	})
}

// ListRuns returns archived runs, newest first
// GET /api/runs?limit=20
func (h *PipelineHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "run archive disabled (no DATABASE_URL)")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

// TriggerRun starts a run in the background
// POST /api/runs?dry_run=true
func (h *PipelineHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.runner.Running() {
		respondError(w, http.StatusConflict, brain.ErrAlreadyRunning.Error())
		return
	}

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	config := brain.RunConfig{RunID: brain.GenerateRunID(), DryRun: dryRun}

	// 요청 context 와 무관하게 끝까지 수행
	go func() {
		if _, err := h.runner.Run(context.Background(), config); err != nil {
			h.logger.WithError(err).WithField("run_id", config.RunID).Warn("Triggered run failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"run_id":  config.RunID,
		"dry_run": dryRun,
	})
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordScreen(t *testing.T) {
	r := New()

	r.RecordScreen(500, 12, map[string]int{"rsi_below_40": 300, "market_cap_above_100b": 188})
	r.RecordScreen(500, 10, map[string]int{"rsi_below_40": 5})

	assert.Equal(t, float64(500), testutil.ToFloat64(r.universeSize))
	assert.Equal(t, float64(10), testutil.ToFloat64(r.passed))
	assert.Equal(t, float64(305), testutil.ToFloat64(r.rejectionsTotal.WithLabelValues("rsi_below_40")))
	assert.Equal(t, float64(188), testutil.ToFloat64(r.rejectionsTotal.WithLabelValues("market_cap_above_100b")))
}

func TestRecorder_RunsAndFailures(t *testing.T) {
	r := New()

	r.RecordRun("success", 3*time.Second)
	r.RecordRun("error", time.Second)
	r.RecordCollectFailure("history")
	r.RecordHTTPRequest("/api/report", "200")

	assert.Equal(t, float64(1), testutil.ToFloat64(r.runsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.collectFailures.WithLabelValues("history")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordRun("success", time.Second)
		r.RecordScreen(1, 1, map[string]int{"x": 1})
		r.RecordCollectFailure("x")
		r.RecordHTTPRequest("/", "200")
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RecordRun("success", time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `screener_runs_total{status="success"} 1`)
}

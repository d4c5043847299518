package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects screener metrics on its own registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
	collectFailures *prometheus.CounterVec
	universeSize    prometheus.Gauge
	passed          prometheus.Gauge
	runDuration     prometheus.Histogram
	httpRequests    *prometheus.CounterVec
}

// New creates a Prometheus recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_runs_total",
				Help: "Screening runs by outcome",
			},
			[]string{"status"},
		),
		rejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_rejections_total",
				Help: "Records rejected, labeled by first failing predicate",
			},
			[]string{"predicate"},
		),
		collectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_collect_failures_total",
				Help: "Instruments dropped during collection",
			},
			[]string{"reason"},
		),
		universeSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "screener_universe_size",
			Help: "Records screened in the last run",
		}),
		passed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "screener_passed",
			Help: "Records passing every predicate in the last run",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_run_duration_seconds",
			Help:    "Wall time of a full collect and screen run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_http_requests_total",
				Help: "API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// Registry exposes the underlying registry (tests, custom collectors).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordRun records a completed run.
func (r *Recorder) RecordRun(status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(elapsed.Seconds())
}

// RecordScreen records the outcome counts of one pipeline pass.
func (r *Recorder) RecordScreen(total, passed int, rejections map[string]int) {
	if r == nil {
		return
	}
	r.universeSize.Set(float64(total))
	r.passed.Set(float64(passed))
	for name, n := range rejections {
		r.rejectionsTotal.WithLabelValues(name).Add(float64(n))
	}
}

// RecordCollectFailure records a dropped instrument.
func (r *Recorder) RecordCollectFailure(reason string) {
	if r == nil {
		return
	}
	r.collectFailures.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records one API request.
func (r *Recorder) RecordHTTPRequest(route, code string) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, code).Inc()
}

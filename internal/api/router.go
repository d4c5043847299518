package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/sp500-screener/internal/api/handlers"
	"github.com/wonny/sp500-screener/pkg/logger"
	"github.com/wonny/sp500-screener/pkg/metrics"
)

// NewRouter creates and configures the HTTP router. hub and rec may be nil.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	reportHandler *handlers.ReportHandler,
	pipelineHandler *handlers.PipelineHandler,
	hub *Hub,
	rec *metrics.Recorder,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Report endpoints
	api.HandleFunc("/report", reportHandler.GetReport).Methods("GET")
	api.HandleFunc("/stocks", reportHandler.GetStocks).Methods("GET")
	api.HandleFunc("/stocks/{symbol}", reportHandler.GetStock).Methods("GET")
	api.HandleFunc("/sectors", reportHandler.GetSectors).Methods("GET")

	// Pipeline endpoints
	api.HandleFunc("/status", pipelineHandler.GetStatus).Methods("GET")
	api.HandleFunc("/runs", pipelineHandler.ListRuns).Methods("GET")
	api.HandleFunc("/runs", pipelineHandler.TriggerRun).Methods("POST")

	if hub != nil {
		r.HandleFunc("/ws", hub.ServeWS).Methods("GET")
	}
	if rec != nil {
		r.Handle("/metrics", rec.Handler()).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log, rec))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "sp500-screener-api",
	})
}

// statusWriter captures the response code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// loggingMiddleware logs HTTP requests and counts them by route template
func loggingMiddleware(log *logger.Logger, rec *metrics.Recorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			rec.RecordHTTPRequest(route, strconv.Itoa(sw.status))

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

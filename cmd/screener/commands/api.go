package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sp500-screener/internal/api"
	"github.com/wonny/sp500-screener/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 최신 리포트 조회 엔드포인트 제공
- 스크리닝 실행 트리거 제공
- websocket 으로 리포트 발행 이벤트 전파

Endpoints:
  GET  /health               - Health check
  GET  /api/report           - 최신 리포트 (대시보드 JSON)
  GET  /api/stocks           - 종목 결과 (?passed=true&sector=...)
  GET  /api/stocks/{symbol}  - 단일 종목 결과
  GET  /api/sectors          - 섹터별 통과 수와 PER 기준선
  GET  /api/status           - 실행 상태
  GET  /api/runs             - 저장된 실행 이력 (Postgres)
  POST /api/runs             - 스크리닝 실행 트리거
  GET  /ws                   - report_published 이벤트
  GET  /metrics              - Prometheus metrics

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080 --schedule`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiSchedule bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiSchedule, "schedule", false, "스케줄러를 같은 프로세스에서 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== S&P 500 Screener API Server ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, appOptions{WithHub: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	go a.hub.Run(ctx)

	var runs handlers.RunLister
	if a.reports != nil {
		runs = a.reports
	}

	router := api.NewRouter(
		handlers.NewReportHandler(a.store, a.log),
		handlers.NewPipelineHandler(a.orchestrator, runs, a.log),
		a.hub,
		a.metrics,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	if apiSchedule {
		sched, err := newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sp500-screener/internal/contracts"
)

// statusCmd checks connections and the latest stored report
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "연결 상태 및 최신 리포트 확인",
	Long: `설정, Postgres, Redis 연결과 마지막 리포트를 점검합니다.

Example:
  go run ./cmd/screener status
  go run ./cmd/screener status --runs 10`,
	RunE: runStatus,
}

var statusRuns int

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusRuns, "runs", 5, "표시할 실행 이력 수 (Postgres)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("S&P 500 Screener Status", map[string]string{
		"Env":      a.cfg.Env,
		"Schedule": a.cfg.ScreenSchedule,
		"Outputs":  strings.Join(a.cfg.Output.Paths, ", "),
	})

	// Postgres
	if a.db == nil {
		PrintInfo("Postgres: disabled (DATABASE_URL not set)")
	} else {
		health, err := a.db.HealthCheck(ctx)
		if err != nil {
			PrintError("Postgres: " + err.Error())
		} else {
			PrintSuccess(fmt.Sprintf("Postgres: ok (%s, %d/%d conns)",
				health.ResponseTime.Round(time.Microsecond), health.TotalConns, health.MaxConns))
		}
	}

	// Redis
	if a.redis.Enabled() {
		PrintSuccess("Redis: connected")
	} else {
		PrintInfo("Redis: disabled")
	}

	// Latest report
	report, err := a.store.Latest(ctx)
	switch {
	case errors.Is(err, contracts.ErrNoReport):
		PrintWarning("No report written yet")
	case err != nil:
		PrintError("Report: " + err.Error())
	default:
		PrintReport(report)
	}

	if a.reports != nil && statusRuns > 0 {
		runs, err := a.reports.ListRuns(ctx, statusRuns)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		fmt.Println()
		widths := []int{6, 20, 8, 8}
		PrintTableHeader([]string{"ID", "COLLECTED", "TOTAL", "PASSED"}, widths)
		for _, r := range runs {
			PrintTableRow([]string{
				strconv.FormatInt(r.ID, 10),
				r.CollectedAt.Format("2006-01-02 15:04"),
				strconv.Itoa(r.Total),
				strconv.Itoa(r.Passed),
			}, widths)
		}
	}

	return nil
}

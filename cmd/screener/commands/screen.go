package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/sp500-screener/internal/brain"
)

// screenCmd runs the whole pipeline once
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "전체 스크리닝 1회 실행",
	Long: `S1 → S0 → S2 → S3 → S4 파이프라인을 1회 실행합니다.

각 단계:
- S1: Universe (Wikipedia 구성 종목 또는 YAML 파일)
- S0: Data (Yahoo 시세, 펀더멘털, 가격 이력)
- S2: Signals (RSI14, SMA200, 괴리율)
- S3: Screener (섹터 PER 기준선 + 8개 필터)
- S4: Publish (JSON, CSV, Postgres)

Example:
  go run ./cmd/screener screen
  go run ./cmd/screener screen --dry-run
  go run ./cmd/screener screen --universe-file universe.yaml --csv out/screen.csv`,
	RunE: runScreen,
}

var (
	screenUniverseFile string
	screenDryRun       bool
	screenCSV          string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Flags
	screenCmd.Flags().StringVar(&screenUniverseFile, "universe-file", "", "YAML constituent list (Wikipedia 대신 사용)")
	screenCmd.Flags().BoolVar(&screenDryRun, "dry-run", false, "저장/전파 없이 결과만 출력")
	screenCmd.Flags().StringVar(&screenCSV, "csv", "", "CSV export path (기본: OUTPUT_CSV)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{UniverseFile: screenUniverseFile})
	if err != nil {
		return err
	}
	defer a.Close()

	csvPath := screenCSV
	if csvPath == "" {
		csvPath = a.cfg.Output.CSVPath
	}

	runID := brain.GenerateRunID()
	PrintHeader("S&P 500 Screening Run", map[string]string{
		"Run ID":  runID,
		"Dry run": fmt.Sprintf("%t", screenDryRun),
		"Outputs": fmt.Sprintf("%v", a.store.Paths()),
	})

	result, err := a.orchestrator.Run(ctx, brain.RunConfig{
		RunID:   runID,
		DryRun:  screenDryRun,
		CSVPath: csvPath,
	})
	if result != nil {
		PrintRunResult(result)
	}
	if err != nil {
		return fmt.Errorf("screening run: %w", err)
	}

	dropped := make([]string, 0)
	for _, r := range a.collector.LastResults() {
		if !r.OK() {
			dropped = append(dropped, fmt.Sprintf("%s (%s)", r.Symbol, r.Reason))
		}
	}
	if len(dropped) > 0 {
		PrintWarning(fmt.Sprintf("%d symbols dropped during collection", len(dropped)))
		if verbose {
			PrintList(dropped)
		}
	}

	return nil
}

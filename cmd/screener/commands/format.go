package commands

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/sp500-screener/internal/brain"
	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/internal/s0_data/quality"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, fields map[string]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-10s: %s\n", k, fields[k])
	}
	if len(keys) > 0 {
		PrintSeparator()
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	for i, col := range columns {
		fmt.Printf("%-*s", widths[i], col)
		if i < len(columns)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// formatFloat renders an absent value as "-"
func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// PrintStages prints one row per executed stage
func PrintStages(stages []contracts.PipelineResult) {
	widths := []int{14, 8, 7, 7, 10}
	PrintTableHeader([]string{"STAGE", "STATUS", "IN", "OUT", "DURATION"}, widths)
	for _, s := range stages {
		status := "ok"
		if !s.Success {
			status = "failed"
		}
		PrintTableRow([]string{
			s.Stage.String(),
			status,
			strconv.Itoa(s.InputCount),
			strconv.Itoa(s.OutputCount),
			(time.Duration(s.Duration) * time.Millisecond).String(),
		}, widths)
	}
}

// PrintReport prints the passing stocks and the rejection counts
func PrintReport(report *contracts.Report) {
	meta := report.Metadata
	fmt.Println()
	PrintKeyValue("Collected", meta.GeneratedAt.Format("2006-01-02 15:04 MST"), 12)
	PrintKeyValue("Screened", strconv.Itoa(meta.TotalCount), 12)
	PrintKeyValue("Passed", strconv.Itoa(meta.PassedCount), 12)
	if meta.SP500Price != nil {
		trend := "-"
		if meta.SP500AboveSMA200 != nil {
			trend = map[bool]string{true: "above 200DMA", false: "below 200DMA"}[*meta.SP500AboveSMA200]
		}
		PrintKeyValue("S&P 500", fmt.Sprintf("%s (200DMA %s, %s)",
			formatFloat(meta.SP500Price), formatFloat(meta.SP500SMA200), trend), 12)
	}

	passed := report.Passed()
	if len(passed) > 0 {
		fmt.Println()
		widths := []int{7, 24, 10, 8, 10, 7, 9, 9}
		PrintTableHeader([]string{"SYMBOL", "SECTOR", "PRICE", "FWD PE", "SECTOR PE", "RSI", "VS 200D", "VS HIGH"}, widths)
		for _, res := range passed {
			sectorPE := "-"
			if v, ok := report.SectorBaselines.Get(res.Sector); ok {
				sectorPE = strconv.FormatFloat(v, 'f', 2, 64)
			}
			PrintTableRow([]string{
				res.Symbol,
				res.Sector,
				formatFloat(res.CurrentPrice),
				formatFloat(res.ForwardPE),
				sectorPE,
				formatFloat(res.RSI14),
				formatFloat(res.PctFromSMA200) + "%",
				formatFloat(res.PctFrom52WHigh) + "%",
			}, widths)
		}
	}

	if len(meta.Rejections) > 0 {
		fmt.Println()
		fmt.Println("Rejections (first failing filter):")
		names := make([]string, 0, len(meta.Rejections))
		for name := range meta.Rejections {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return meta.Rejections[names[i]] > meta.Rejections[names[j]]
		})
		for _, name := range names {
			PrintKeyValue(name, strconv.Itoa(meta.Rejections[name]), 28)
		}
	}
}

// PrintRunResult prints the stage table and, when present, the report
func PrintRunResult(result *brain.RunResult) {
	fmt.Println()
	PrintStages(result.CompletedStages)

	if result.Quality != nil {
		fmt.Println()
		PrintKeyValue("Quality", fmt.Sprintf("%.2f (collected %.0f%%)",
			result.Quality.QualityScore, result.Quality.Coverage[quality.CoverageCollected]*100), 12)
	}
	if result.Report != nil {
		PrintReport(result.Report)
	}

	fmt.Println()
	if result.Success {
		PrintSuccess(fmt.Sprintf("Run %s completed in %.2fs", result.RunID, result.Duration.Seconds()))
	} else {
		PrintError(fmt.Sprintf("Run %s failed: %s", result.RunID, result.Error))
	}
}

package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// universeCmd prints the resolved constituent list
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Universe 조회",
	Long: `S&P 500 구성 종목을 불러와 정제 결과를 출력합니다.

Example:
  go run ./cmd/screener universe
  go run ./cmd/screener universe --universe-file universe.yaml --list
  go run ./cmd/screener universe --save`,
	RunE: runUniverse,
}

var (
	universeFile string
	universeList bool
	universeSave bool
)

func init() {
	rootCmd.AddCommand(universeCmd)

	universeCmd.Flags().StringVar(&universeFile, "universe-file", "", "YAML constituent list (Wikipedia 대신 사용)")
	universeCmd.Flags().BoolVar(&universeList, "list", false, "전체 종목 목록 출력")
	universeCmd.Flags().BoolVar(&universeSave, "save", false, "Postgres 에 스냅샷 저장")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, appOptions{UniverseFile: universeFile})
	if err != nil {
		return err
	}
	defer a.Close()

	universe, err := a.universeBuilder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	PrintHeader("S&P 500 Universe", map[string]string{
		"Source": universe.Source,
		"Date":   universe.Date.Format("2006-01-02"),
	})
	PrintKeyValue("Rows", strconv.Itoa(universe.TotalCount), 10)
	PrintKeyValue("Included", strconv.Itoa(universe.Count()), 10)
	PrintKeyValue("Excluded", strconv.Itoa(len(universe.Excluded)), 10)

	if len(universe.Excluded) > 0 {
		fmt.Println()
		keys := make([]string, 0, len(universe.Excluded))
		for k := range universe.Excluded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			PrintKeyValue(k, universe.Excluded[k], 10)
		}
	}

	if universeList {
		fmt.Println()
		widths := []int{7, 36, 24}
		PrintTableHeader([]string{"SYMBOL", "NAME", "SECTOR"}, widths)
		for _, c := range universe.Constituents {
			PrintTableRow([]string{c.Symbol, c.Name, c.Sector}, widths)
		}
	}

	if universeSave {
		store := a.universeStore()
		if store == nil {
			PrintWarning("DATABASE_URL not set, snapshot not saved")
			return nil
		}
		if err := store.SaveUniverse(ctx, universe); err != nil {
			return fmt.Errorf("save universe: %w", err)
		}
		fmt.Println()
		PrintSuccess("Universe snapshot saved")
	}

	return nil
}

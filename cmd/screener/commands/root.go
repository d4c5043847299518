package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "S&P 500 눌림목 스크리너",
	Long: `S&P 500 Pullback Screener

S&P 500 구성 종목을 수집하고 8개 필터로 스크리닝합니다.
S1 Universe → S0 Data → S2 Signals → S3 Screener → S4 Publish

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener screen
  go run ./cmd/screener screen --dry-run --csv out/screen.csv
  go run ./cmd/screener universe
  go run ./cmd/screener api --schedule
  go run ./cmd/screener scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

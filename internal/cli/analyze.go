package cli

import (
	"github.com/spf13/cobra"

	"block-ts-audit/internal/app"
)

var (
	analyzeChains   []string
	analyzeWindowMS float64
	analyzeLogsDir  string
	analyzeFromDB   bool
	analyzeChartDir string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse collected timestamp deviations and print a report",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.AnalyzeOptions{
			Chains:   analyzeChains,
			WindowMS: analyzeWindowMS,
			LogsDir:  analyzeLogsDir,
			FromDB:   analyzeFromDB,
			ChartDir: analyzeChartDir,
			Out:      cmd.OutOrStdout(),
		}
		return getApp().Analyze(cmd.Context(), opts)
	},
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeChains, "chains", nil, "Chains to analyse (defaults to all detected)")
	analyzeCmd.Flags().Float64Var(&analyzeWindowMS, "window-ms", 0, "Batch collection window in milliseconds (defaults to config)")
	analyzeCmd.Flags().StringVar(&analyzeLogsDir, "logs-dir", "", "Directory holding collector CSV logs (defaults to config)")
	analyzeCmd.Flags().BoolVar(&analyzeFromDB, "from-db", false, "Load observations from the database instead of CSV logs")
	analyzeCmd.Flags().StringVar(&analyzeChartDir, "charts", "", "Directory to write PNG charts into")
}

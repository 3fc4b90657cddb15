package cli

import (
	"github.com/spf13/cobra"

	"block-ts-audit/internal/app"
)

var (
	exportChains  []string
	exportLogsDir string
	exportFromDB  bool
	exportOutDir  string
	exportCSVDir  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export deviation charts and normalised CSV files",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Chains:  exportChains,
			LogsDir: exportLogsDir,
			FromDB:  exportFromDB,
			OutDir:  exportOutDir,
			CSVDir:  exportCSVDir,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportChains, "chains", nil, "Chains to export (defaults to all detected)")
	exportCmd.Flags().StringVar(&exportLogsDir, "logs-dir", "", "Directory holding collector CSV logs (defaults to config)")
	exportCmd.Flags().BoolVar(&exportFromDB, "from-db", false, "Load observations from the database instead of CSV logs")
	exportCmd.Flags().StringVar(&exportOutDir, "out", "", "Directory to write charts into (defaults to config)")
	exportCmd.Flags().StringVar(&exportCSVDir, "csv", "", "Directory to rewrite per-chain CSV files into")
}

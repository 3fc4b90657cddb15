package app

import (
	"context"

	"block-ts-audit/internal/collector"
	"block-ts-audit/internal/loader"
	"block-ts-audit/internal/report"
	"block-ts-audit/internal/series"
)

// Export renders distribution and percentile charts for the loaded
// chains. When CSVDir is set it also rewrites normalised per-chain CSV
// files from the loaded samples.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	outDir := opts.OutDir
	if outDir == "" {
		outDir = a.Config.Export.OutputDir
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var samples map[string]*series.ChainSeries
	if opts.FromDB {
		samples, err = a.loadFromStore(ctx, store, opts.Chains)
	} else {
		logsDir := opts.LogsDir
		if logsDir == "" {
			logsDir = a.Config.Collector.OutputDir
		}
		samples, err = loader.New(logsDir, a.Logger).LoadAll(opts.Chains)
	}
	if err != nil {
		return err
	}

	reports := a.analyzeAll(samples, a.Config.Analysis.BatchWindowMS)
	if len(reports) == 0 {
		a.Logger.Warn().Msg("no chain produced a usable sample; nothing to export")
		return nil
	}

	a.writeCharts(outDir, reports)

	if opts.CSVDir != "" {
		a.rewriteCSV(opts.CSVDir, reports)
	}

	a.Logger.Info().Int("chains", len(reports)).Str("dir", outDir).Msg("export complete")
	return nil
}

// rewriteCSV regenerates the per-chain CSV files from analysed samples,
// reusing the collector's flush format so the output round-trips through
// the loader.
func (a *App) rewriteCSV(dir string, reports []report.ChainReport) {
	for _, rep := range reports {
		if !rep.Series.HasRecords() {
			a.Logger.Warn().Str("chain", rep.ChainID).Msg("no detailed records; skipping csv rewrite")
			continue
		}
		snap := snapshotForExport(rep)
		if err := snap.WriteCSV(dir); err != nil {
			a.Logger.Error().Err(err).Str("chain", rep.ChainID).Msg("failed to rewrite csv")
		}
	}
}

func snapshotForExport(rep report.ChainReport) collector.StatsSnapshot {
	sum := rep.Summary

	maxPast := 0.0
	if sum.MaxMS > 0 {
		maxPast = sum.MaxMS
	}
	maxFuture := 0.0
	if sum.MinMS < 0 {
		maxFuture = -sum.MinMS
	}

	return collector.StatsSnapshot{
		Chain:            rep.ChainID,
		TotalBlocks:      sum.TotalSamples,
		PastBlocks:       sum.PastCount,
		FutureBlocks:     sum.FutureCount,
		AvgDeltaMS:       sum.MeanMS,
		MaxPastDeltaMS:   maxPast,
		MaxFutureDeltaMS: maxFuture,
		Records:          rep.Series.Records(),
	}
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"block-ts-audit/internal/analysis"
	"block-ts-audit/internal/loader"
	"block-ts-audit/internal/report"
	"block-ts-audit/internal/series"
	"block-ts-audit/internal/storage"
)

// Analyze loads per-chain samples, runs the full engine over each, and
// renders the report. A chain that fails is skipped; the rest complete.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	windowMS := opts.WindowMS
	if windowMS <= 0 {
		windowMS = a.Config.Analysis.BatchWindowMS
	}

	chains := opts.Chains
	if len(chains) == 0 {
		chains = a.Config.Analysis.Chains
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
		samples, err = a.loadFromStore(ctx, store, chains)
	} else {
		logsDir := opts.LogsDir
		if logsDir == "" {
			logsDir = a.Config.Collector.OutputDir
		}
		samples, err = loader.New(logsDir, a.Logger).LoadAll(chains)
	}
	if err != nil {
		return err
	}

	reports := a.analyzeAll(samples, windowMS)
	if len(reports) == 0 {
		a.Logger.Warn().Msg("no chain produced a usable sample")
	}

	if store != nil {
		a.persistReports(ctx, store, reports)
	}

	if opts.ChartDir != "" {
		a.writeCharts(opts.ChartDir, reports)
	}

	return report.WriteText(out, reports, a.Config.Analysis.BinWidthMS)
}

// analyzeAll runs the engine per chain, in deterministic chain order.
func (a *App) analyzeAll(samples map[string]*series.ChainSeries, windowMS float64) []report.ChainReport {
	chains := make([]string, 0, len(samples))
	for chain := range samples {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	reports := make([]report.ChainReport, 0, len(chains))
	for _, chain := range chains {
		rep, err := analyzeChain(samples[chain], windowMS)
		if err != nil {
			a.Logger.Error().Err(err).Str("chain", chain).Msg("analysis failed; skipping chain")
			continue
		}
		reports = append(reports, rep)
	}
	return reports
}

func analyzeChain(s *series.ChainSeries, windowMS float64) (report.ChainReport, error) {
	summary, err := analysis.Summarize(s)
	if err != nil {
		return report.ChainReport{}, err
	}

	window, err := analysis.Simulate(s, windowMS)
	if err != nil {
		return report.ChainReport{}, err
	}

	rep := report.ChainReport{
		ChainID: s.ChainID(),
		Series:  s,
		Summary: summary,
		Window:  window,
		Tiers:   analysis.Classify(summary, window),
	}

	trend, err := analysis.AnalyzeTrend(s)
	switch {
	case err == nil:
		rep.Trend = trend
	default:
		var insufficient *series.InsufficientSampleError
		if !errors.As(err, &insufficient) {
			return report.ChainReport{}, err
		}
		rep.TrendSkipped = insufficient.Error()
	}

	return rep, nil
}

func (a *App) persistReports(ctx context.Context, store storage.ReportStore, reports []report.ChainReport) {
	runAt := time.Now().UTC()
	for _, rep := range reports {
		payload, err := json.Marshal(rep)
		if err != nil {
			a.Logger.Error().Err(err).Str("chain", rep.ChainID).Msg("failed to marshal report")
			continue
		}
		rec := storage.ReportRecord{Chain: rep.ChainID, RunAt: runAt, Report: payload}
		if _, err := store.InsertReport(ctx, rec); err != nil {
			a.Logger.Error().Err(err).Str("chain", rep.ChainID).Msg("failed to persist report")
		}
	}
}

func (a *App) writeCharts(dir string, reports []report.ChainReport) {
	summaries := make([]*analysis.Summary, 0, len(reports))
	for _, rep := range reports {
		summaries = append(summaries, rep.Summary)

		path := filepath.Join(dir, rep.ChainID+"_distribution.png")
		if err := report.WriteDistributionPNG(path, rep, a.Config.Analysis.BinWidthMS); err != nil {
			a.Logger.Error().Err(err).Str("chain", rep.ChainID).Msg("failed to write distribution chart")
		}
	}

	if len(summaries) > 0 {
		path := filepath.Join(dir, "percentiles.png")
		if err := report.WritePercentilesPNG(path, summaries); err != nil {
			a.Logger.Error().Err(err).Msg("failed to write percentile chart")
		}
	}
}

package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const histogramBarWidth = 40

// WriteText renders the full per-chain report to w.
func WriteText(w io.Writer, reports []ChainReport, binWidthMS float64) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "no chains with usable data")
		return err
	}

	for _, rep := range reports {
		if err := writeChain(w, rep, binWidthMS); err != nil {
			return err
		}
	}
	return nil
}

func writeChain(w io.Writer, rep ChainReport, binWidthMS float64) error {
	fmt.Fprintf(w, "===== %s =====\n", rep.ChainID)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	sum := rep.Summary
	fmt.Fprintf(tw, "Total blocks\t%d\n", sum.TotalSamples)
	fmt.Fprintf(tw, "Past timestamps\t%d (%.1f%%)\n", sum.PastCount, sum.PastPct)
	fmt.Fprintf(tw, "Future timestamps\t%d (%.1f%%)\n", sum.FutureCount, sum.FuturePct)
	fmt.Fprintf(tw, "Mean delta\t%.1f ms\n", sum.MeanMS)
	fmt.Fprintf(tw, "Max past delta\t%.1f ms\n", sum.MaxMS)
	fmt.Fprintf(tw, "Max future delta\t%.1f ms\n", -sum.MinMS)
	fmt.Fprintf(tw, "Median |delta|\t%.1f ms\n", sum.Abs.Median)
	fmt.Fprintf(tw, "Std of |delta|\t%.1f ms\n", sum.StdAbsMS)
	fmt.Fprintf(tw, "p95/p99 |delta|\t%.1f / %.1f ms\n", sum.Abs.P95, sum.Abs.P99)

	if pre := rep.Series.Precomputed(); pre != nil && pre.TotalBlocks != sum.TotalSamples {
		fmt.Fprintf(tw, "Note\tcollector stats file reports %d blocks\n", pre.TotalBlocks)
	}

	win := rep.Window
	fmt.Fprintf(tw, "Batch window\t%.0f ms\n", win.WindowMS)
	fmt.Fprintf(tw, "Mis-bucketed\t%d (%.2f%%)\n", win.MisBucketed, win.MisBucketedPct)
	fmt.Fprintf(tw, "  early (future ts)\t%d (%.2f%%)\n", win.FutureCaused, win.FutureCausedPct)
	fmt.Fprintf(tw, "  late (past ts)\t%d (%.2f%%)\n", win.PastCaused, win.PastCausedPct)
	fmt.Fprintf(tw, "Recommended window\t%.0f ms (%.0f ms with 20%% buffer)\n",
		win.RecommendedWindowMS, win.RecommendedWindowBufferedMS)

	tiers := rep.Tiers
	fmt.Fprintf(tw, "Accuracy\t%s\n", tiers.Accuracy)
	fmt.Fprintf(tw, "Variability\t%s\n", tiers.Variability)
	fmt.Fprintf(tw, "Compliance\t%s\n", tiers.Compliance)
	fmt.Fprintf(tw, "Batching suitability\t%s\n", tiers.Reliability)

	writeTrend(tw, rep)

	if err := tw.Flush(); err != nil {
		return err
	}

	writeHistogram(w, rep, binWidthMS)
	fmt.Fprintln(w)
	return nil
}

func writeTrend(tw io.Writer, rep ChainReport) {
	if rep.Trend == nil {
		if rep.TrendSkipped != "" {
			fmt.Fprintf(tw, "Trend\tskipped: %s\n", rep.TrendSkipped)
		}
		return
	}

	trend := rep.Trend
	if trend.DriftDefined {
		fmt.Fprintf(tw, "Drift\t%s (%.1f%%: %.1f -> %.1f ms)\n",
			trend.Drift, trend.RelativeDriftPct, trend.FirstHalfMeanMS, trend.SecondHalfMeanMS)
	} else {
		fmt.Fprintf(tw, "Drift\t%s\n", trend.Drift)
	}

	if trend.CorrelationDefined {
		fmt.Fprintf(tw, "Gap correlation\t%.3f (%s)\n", trend.Correlation, trend.CorrelationLabel)
	} else {
		fmt.Fprintf(tw, "Gap correlation\tundefined\n")
	}

	fmt.Fprintf(tw, "Outliers\t%d (%.1f%%, %s; threshold %.1f ms)\n",
		len(trend.OutlierIndices), trend.OutlierRatePct, trend.OutlierLabel, trend.OutlierThresholdMS)

	if len(trend.ShiftPoints) == 0 {
		fmt.Fprintf(tw, "Shifts\tnone detected\n")
	} else {
		points := make([]string, len(trend.ShiftPoints))
		for i, idx := range trend.ShiftPoints {
			points[i] = fmt.Sprintf("%d", idx)
		}
		line := strings.Join(points, ", ")
		if trend.ExtraShiftCount > 0 {
			line += fmt.Sprintf(" (+%d more)", trend.ExtraShiftCount)
		}
		fmt.Fprintf(tw, "Shifts\tat index %s\n", line)
	}
}

func writeHistogram(w io.Writer, rep ChainReport, binWidthMS float64) {
	bins := Histogram(rep.Series.Deviations(), binWidthMS)
	if len(bins) == 0 {
		return
	}

	maxCount := 0
	for _, bin := range bins {
		if bin.Count > maxCount {
			maxCount = bin.Count
		}
	}

	fmt.Fprintf(w, "\nDelta distribution (bin width %.0f ms):\n", binWidthMS)
	fmt.Fprintln(w, "  Range (ms)             | Count | Distribution")
	fmt.Fprintln(w, "  -----------------------|-------|-------------")
	for _, bin := range bins {
		bar := strings.Repeat("#", bin.Count*histogramBarWidth/maxCount)
		fmt.Fprintf(w, "  %8.0f to %8.0f   | %5d | %s\n", bin.LowMS, bin.HighMS, bin.Count, bar)
	}
}

// Package report renders engine output for humans: a tabular text report
// with a delta histogram, and PNG charts.
package report

import (
	"math"

	"block-ts-audit/internal/analysis"
	"block-ts-audit/internal/series"
)

// ChainReport bundles every analysis result for one chain.
type ChainReport struct {
	ChainID string                  `json:"chain_id"`
	Series  *series.ChainSeries     `json:"-"`
	Summary *analysis.Summary       `json:"summary"`
	Window  *analysis.WindowReport  `json:"window"`
	Tiers   analysis.Tiers          `json:"tiers"`
	// Trend is nil when the sample cannot support trend analysis;
	// TrendSkipped then carries the reason.
	Trend        *analysis.TrendReport `json:"trend,omitempty"`
	TrendSkipped string                `json:"trend_skipped,omitempty"`
}

// Bin is one histogram bucket over [LowMS, HighMS).
type Bin struct {
	LowMS  float64
	HighMS float64
	Count  int
}

// Histogram buckets values at the given bin width. Bin edges are aligned
// to multiples of the width, covering the full sample range.
func Histogram(values []float64, binWidthMS float64) []Bin {
	if len(values) == 0 || binWidthMS <= 0 {
		return nil
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	lo := math.Floor(minV/binWidthMS) * binWidthMS
	count := int(math.Floor((maxV-lo)/binWidthMS)) + 1

	bins := make([]Bin, count)
	for i := range bins {
		bins[i].LowMS = lo + float64(i)*binWidthMS
		bins[i].HighMS = bins[i].LowMS + binWidthMS
	}
	for _, v := range values {
		idx := int(math.Floor((v - lo) / binWidthMS))
		if idx >= count {
			idx = count - 1
		}
		bins[idx].Count++
	}
	return bins
}

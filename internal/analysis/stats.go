// Package analysis implements the timestamp-deviation engine: summary
// statistics, batch-window simulation, trend analysis, and suitability
// classification over a per-chain sample.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"block-ts-audit/internal/series"
)

// Quantiles holds the named quantiles of a distribution.
type Quantiles struct {
	P25    float64
	Median float64
	P75    float64
	P95    float64
	P99    float64
}

// Summary is the per-chain statistical summary.
type Summary struct {
	ChainID      string
	TotalSamples int

	PastCount   int
	FutureCount int
	PastPct     float64
	FuturePct   float64

	MeanMS   float64
	MaxMS    float64 // largest positive deviation
	MinMS    float64 // most negative deviation
	StdAbsMS float64 // standard deviation of absolute deviations

	// SignedPercentiles[i] and AbsPercentiles[i] hold the (i+1)-th
	// percentile, i in [0, 98].
	SignedPercentiles []float64
	AbsPercentiles    []float64

	Signed Quantiles
	Abs    Quantiles
}

// Summarize computes the full statistical summary for a series.
func Summarize(s *series.ChainSeries) (*Summary, error) {
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("%w: nothing to summarize", series.ErrEmptySeries)
	}

	deviations := s.Deviations()
	total := len(deviations)

	abs := make([]float64, total)
	past := 0
	sum := 0.0
	maxMS := deviations[0]
	minMS := deviations[0]
	for i, d := range deviations {
		abs[i] = math.Abs(d)
		sum += d
		if d > 0 {
			past++
		}
		if d > maxMS {
			maxMS = d
		}
		if d < minMS {
			minMS = d
		}
	}
	future := total - past

	sortedSigned := sortedCopy(deviations)
	sortedAbs := sortedCopy(abs)

	signedPcts := percentileCurve(sortedSigned)
	absPcts := percentileCurve(sortedAbs)

	return &Summary{
		ChainID:           s.ChainID(),
		TotalSamples:      total,
		PastCount:         past,
		FutureCount:       future,
		PastPct:           float64(past) / float64(total) * 100,
		FuturePct:         float64(future) / float64(total) * 100,
		MeanMS:            sum / float64(total),
		MaxMS:             maxMS,
		MinMS:             minMS,
		StdAbsMS:          StdDev(abs),
		SignedPercentiles: signedPcts,
		AbsPercentiles:    absPcts,
		Signed:            namedQuantiles(sortedSigned),
		Abs:               namedQuantiles(sortedAbs),
	}, nil
}

// Percentile computes the p-th percentile, p in [0, 100], using linear
// interpolation between order statistics. A single-element sample yields
// that value for every p. The input need not be sorted.
func Percentile(values []float64, p float64) float64 {
	return percentileSorted(sortedCopy(values), p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lower := int(math.Floor(rank))
	frac := rank - float64(lower)
	if lower+1 >= n {
		return sorted[n-1]
	}
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

func percentileCurve(sorted []float64) []float64 {
	curve := make([]float64, 99)
	for p := 1; p <= 99; p++ {
		curve[p-1] = percentileSorted(sorted, float64(p))
	}
	return curve
}

func namedQuantiles(sorted []float64) Quantiles {
	return Quantiles{
		P25:    percentileSorted(sorted, 25),
		Median: percentileSorted(sorted, 50),
		P75:    percentileSorted(sorted, 75),
		P95:    percentileSorted(sorted, 95),
		P99:    percentileSorted(sorted, 99),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, or 0 when fewer than
// two values exist.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}

func sortedCopy(values []float64) []float64 {
	copied := make([]float64, len(values))
	copy(copied, values)
	sort.Float64s(copied)
	return copied
}

func absValues(values []float64) []float64 {
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	return abs
}

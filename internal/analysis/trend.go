package analysis

import (
	"math"

	"block-ts-audit/internal/series"
)

const (
	minTrendRecords       = 10
	minCorrelationRecords = 3
	minShiftRecords       = 30
	maxRollingWindow      = 20

	driftStableBandPct   = 5
	correlationFloor     = 0.2
	reportedShiftPoints  = 3
	outlierIQRMultiplier = 1.5
)

// RollingPoint is the rolling mean/std of absolute deviation for the
// window ending at Index.
type RollingPoint struct {
	Index  int
	MeanMS float64
	StdMS  float64
}

// TrendReport captures the temporal behaviour of a detailed series.
type TrendReport struct {
	ChainID    string
	Records    int
	WindowSize int

	Rolling []RollingPoint

	FirstHalfMeanMS  float64
	SecondHalfMeanMS float64
	RelativeDriftPct float64
	DriftDefined     bool
	Drift            string

	Correlation        float64
	CorrelationDefined bool
	CorrelationLabel   string

	OutlierThresholdMS float64
	OutlierIndices     []int
	OutlierRatePct     float64
	OutlierLabel       string

	// ShiftPoints holds up to the first three detected shift indices;
	// ExtraShiftCount counts any beyond those.
	ShiftPoints     []int
	ExtraShiftCount int
}

// AnalyzeTrend runs the temporal analyses over a detailed series. Fewer
// than ten records yields an InsufficientSampleError; the caller omits the
// trend section and carries on.
func AnalyzeTrend(s *series.ChainSeries) (*TrendReport, error) {
	if s == nil || !s.HasRecords() {
		return nil, &series.InsufficientSampleError{Analysis: "trend analysis", Need: minTrendRecords, Have: 0}
	}

	records := s.Records()
	n := len(records)
	if n < minTrendRecords {
		return nil, &series.InsufficientSampleError{Analysis: "trend analysis", Need: minTrendRecords, Have: n}
	}

	abs := make([]float64, n)
	for i, rec := range records {
		abs[i] = math.Abs(rec.DeviationMS)
	}

	windowSize := n / 2
	if windowSize > maxRollingWindow {
		windowSize = maxRollingWindow
	}

	report := &TrendReport{
		ChainID:    s.ChainID(),
		Records:    n,
		WindowSize: windowSize,
		Rolling:    rollingStats(abs, windowSize),
	}

	analyzeDrift(report, abs)
	analyzeGapCorrelation(report, records, abs)
	analyzeOutliers(report, abs)
	analyzeShifts(report, abs, windowSize)

	return report, nil
}

// rollingStats recomputes each window independently from its own slice.
// Incremental updates would be cheaper but accumulate floating-point
// drift over long samples.
func rollingStats(abs []float64, window int) []RollingPoint {
	if window < 1 || len(abs) < window {
		return nil
	}
	points := make([]RollingPoint, 0, len(abs)-window+1)
	for i := window - 1; i < len(abs); i++ {
		slice := abs[i-window+1 : i+1]
		points = append(points, RollingPoint{
			Index:  i,
			MeanMS: Mean(slice),
			StdMS:  StdDev(slice),
		})
	}
	return points
}

func analyzeDrift(report *TrendReport, abs []float64) {
	half := len(abs) / 2
	first := Mean(abs[:half])
	second := Mean(abs[half:])

	report.FirstHalfMeanMS = first
	report.SecondHalfMeanMS = second

	if first == 0 {
		report.Drift = "stable"
		return
	}

	rel := (second - first) / first * 100
	report.RelativeDriftPct = rel
	report.DriftDefined = true

	switch {
	case math.Abs(rel) < driftStableBandPct:
		report.Drift = "stable"
	case rel < 0:
		report.Drift = "improving"
	default:
		report.Drift = "degrading"
	}
}

// analyzeGapCorrelation relates the gap between consecutive block
// timestamps to the absolute deviation of the later block.
func analyzeGapCorrelation(report *TrendReport, records []series.BlockRecord, abs []float64) {
	if len(records) < minCorrelationRecords {
		return
	}

	gaps := make([]float64, 0, len(records)-1)
	devs := make([]float64, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		gaps = append(gaps, records[i].BlockTimestamp-records[i-1].BlockTimestamp)
		devs = append(devs, abs[i])
	}

	r, ok := pearson(gaps, devs)
	if !ok {
		return
	}

	report.Correlation = r
	report.CorrelationDefined = true
	switch {
	case math.Abs(r) < correlationFloor:
		report.CorrelationLabel = "no correlation"
	case r > 0:
		report.CorrelationLabel = "slower blocks less accurate"
	default:
		report.CorrelationLabel = "faster blocks less accurate"
	}
}

func analyzeOutliers(report *TrendReport, abs []float64) {
	sorted := sortedCopy(abs)
	q1 := percentileSorted(sorted, 25)
	q3 := percentileSorted(sorted, 75)
	threshold := q3 + outlierIQRMultiplier*(q3-q1)

	var outliers []int
	for i, v := range abs {
		if v > threshold {
			outliers = append(outliers, i)
		}
	}

	rate := float64(len(outliers)) / float64(len(abs)) * 100

	report.OutlierThresholdMS = threshold
	report.OutlierIndices = outliers
	report.OutlierRatePct = rate

	switch {
	case rate > 10:
		report.OutlierLabel = "high"
	case rate > 5:
		report.OutlierLabel = "moderate"
	default:
		report.OutlierLabel = "low"
	}
}

// analyzeShifts scans every interior index, comparing the mean of the
// preceding window against the following one. The windows are recomputed
// from scratch at each index; with samples in the low thousands the
// O(n*window) cost is irrelevant, and prefix sums exist if that changes.
func analyzeShifts(report *TrendReport, abs []float64, window int) {
	n := len(abs)
	if n < minShiftRecords || window < 1 {
		return
	}

	// A clean level shift between equal halves produces a jump of exactly
	// twice the overall dispersion, so the comparison is inclusive.
	threshold := 2 * StdDev(abs)
	if threshold == 0 {
		return
	}

	var shifts []int
	for i := window; i <= n-window; i++ {
		before := Mean(abs[i-window : i])
		after := Mean(abs[i : i+window])
		if math.Abs(after-before) >= threshold {
			shifts = append(shifts, i)
		}
	}

	if len(shifts) > reportedShiftPoints {
		report.ExtraShiftCount = len(shifts) - reportedShiftPoints
		shifts = shifts[:reportedShiftPoints]
	}
	report.ShiftPoints = shifts
}

// pearson computes the Pearson correlation coefficient. ok is false when
// either variable has no variance.
func pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

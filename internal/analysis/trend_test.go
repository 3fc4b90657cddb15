package analysis

import (
	"errors"
	"math"
	"testing"

	"block-ts-audit/internal/series"
)

// detailed builds a detailed series with 2s block spacing unless gaps are
// provided.
func detailed(t *testing.T, chain string, deviations []float64, gaps []float64) *series.ChainSeries {
	t.Helper()
	records := make([]series.BlockRecord, len(deviations))
	ts := 1_700_000_000.0
	for i, d := range deviations {
		if i > 0 {
			gap := 2.0
			if gaps != nil {
				gap = gaps[i-1]
			}
			ts += gap
		}
		records[i] = series.BlockRecord{
			BlockNumber:    int64(1000 + i),
			BlockTimestamp: ts,
			DeviationMS:    d,
		}
	}
	s, err := series.NewDetailed(chain, records)
	if err != nil {
		t.Fatalf("series.NewDetailed: %v", err)
	}
	return s
}

func TestAnalyzeTrendInsufficientRecords(t *testing.T) {
	s := detailed(t, "X", []float64{1, 2, 3, 4, 5}, nil)

	_, err := AnalyzeTrend(s)
	var insufficient *series.InsufficientSampleError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientSampleError", err)
	}
	if insufficient.Have != 5 || insufficient.Need != 10 {
		t.Errorf("unexpected error detail: %+v", insufficient)
	}
}

func TestAnalyzeTrendDeltasOnlySeries(t *testing.T) {
	s := mustSeries(t, "X", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})

	var insufficient *series.InsufficientSampleError
	if _, err := AnalyzeTrend(s); !errors.As(err, &insufficient) {
		t.Fatalf("deltas-only series should report insufficient data, got %v", err)
	}
}

func TestAnalyzeTrendDegradingWithShift(t *testing.T) {
	deviations := make([]float64, 40)
	for i := range deviations {
		if i < 20 {
			deviations[i] = 10
		} else {
			deviations[i] = 2000
		}
	}
	s := detailed(t, "X", deviations, nil)

	rep, err := AnalyzeTrend(s)
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}

	if rep.WindowSize != 20 {
		t.Errorf("window size = %d, want 20", rep.WindowSize)
	}
	if rep.Drift != "degrading" {
		t.Errorf("drift = %q, want degrading", rep.Drift)
	}
	if rep.SecondHalfMeanMS != 2000 || rep.FirstHalfMeanMS != 10 {
		t.Errorf("half means = %v/%v, want 10/2000", rep.FirstHalfMeanMS, rep.SecondHalfMeanMS)
	}

	if len(rep.ShiftPoints) == 0 {
		t.Fatal("expected at least one shift point")
	}
	found := false
	for _, idx := range rep.ShiftPoints {
		if idx >= 18 && idx <= 22 {
			found = true
		}
	}
	if !found {
		t.Errorf("no shift point near index 20: %v", rep.ShiftPoints)
	}
}

func TestAnalyzeTrendImprovingAndStable(t *testing.T) {
	improving := make([]float64, 40)
	for i := range improving {
		if i < 20 {
			improving[i] = 2000
		} else {
			improving[i] = 10
		}
	}
	rep, err := AnalyzeTrend(detailed(t, "X", improving, nil))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if rep.Drift != "improving" {
		t.Errorf("drift = %q, want improving", rep.Drift)
	}

	stable := make([]float64, 40)
	for i := range stable {
		stable[i] = 100 + float64(i%2) // tiny alternation, halves agree
	}
	rep, err = AnalyzeTrend(detailed(t, "X", stable, nil))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if rep.Drift != "stable" {
		t.Errorf("drift = %q, want stable", rep.Drift)
	}
	if len(rep.ShiftPoints) != 0 {
		t.Errorf("stable series produced shift points: %v", rep.ShiftPoints)
	}
}

func TestAnalyzeTrendZeroFirstHalf(t *testing.T) {
	deviations := make([]float64, 20)
	for i := 10; i < 20; i++ {
		deviations[i] = 50
	}
	rep, err := AnalyzeTrend(detailed(t, "X", deviations, nil))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if rep.DriftDefined {
		t.Error("drift should be undefined when the first-half mean is zero")
	}
	if math.IsNaN(rep.RelativeDriftPct) || math.IsInf(rep.RelativeDriftPct, 0) {
		t.Errorf("relative drift = %v, want finite", rep.RelativeDriftPct)
	}
}

func TestAnalyzeTrendRollingWindow(t *testing.T) {
	deviations := make([]float64, 12)
	for i := range deviations {
		deviations[i] = float64(i + 1)
	}
	rep, err := AnalyzeTrend(detailed(t, "X", deviations, nil))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}

	// n=12 -> window min(20, 6) = 6, so 7 rolling points.
	if rep.WindowSize != 6 {
		t.Errorf("window size = %d, want 6", rep.WindowSize)
	}
	if len(rep.Rolling) != 7 {
		t.Fatalf("rolling points = %d, want 7", len(rep.Rolling))
	}
	first := rep.Rolling[0]
	if first.Index != 5 {
		t.Errorf("first rolling index = %d, want 5", first.Index)
	}
	// mean of 1..6 = 3.5
	if math.Abs(first.MeanMS-3.5) > 1e-9 {
		t.Errorf("first rolling mean = %v, want 3.5", first.MeanMS)
	}
}

func TestAnalyzeTrendGapCorrelation(t *testing.T) {
	// Deviation proportional to the preceding gap: perfect positive
	// correlation.
	n := 12
	deviations := make([]float64, n)
	gaps := make([]float64, n-1)
	deviations[0] = 100
	for i := 1; i < n; i++ {
		gap := 1.0 + float64(i%4)
		gaps[i-1] = gap
		deviations[i] = gap * 150
	}

	rep, err := AnalyzeTrend(detailed(t, "X", deviations, gaps))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if !rep.CorrelationDefined {
		t.Fatal("correlation should be defined")
	}
	if rep.Correlation < 0.999 {
		t.Errorf("correlation = %v, want ~1", rep.Correlation)
	}
	if rep.CorrelationLabel != "slower blocks less accurate" {
		t.Errorf("label = %q, want slower blocks less accurate", rep.CorrelationLabel)
	}
}

func TestAnalyzeTrendCorrelationUndefinedWithoutVariance(t *testing.T) {
	deviations := make([]float64, 12)
	for i := range deviations {
		deviations[i] = 100 // constant deviation, constant gaps
	}
	rep, err := AnalyzeTrend(detailed(t, "X", deviations, nil))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if rep.CorrelationDefined {
		t.Errorf("correlation should be undefined, got %v", rep.Correlation)
	}
}

func TestAnalyzeTrendOutliers(t *testing.T) {
	deviations := make([]float64, 20)
	for i := range deviations {
		deviations[i] = 100
	}
	deviations[7] = 9000

	rep, err := AnalyzeTrend(detailed(t, "X", deviations, nil))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}

	// Q1 == Q3 == 100, so the threshold collapses to Q3 itself.
	if rep.OutlierThresholdMS != 100 {
		t.Errorf("outlier threshold = %v, want 100", rep.OutlierThresholdMS)
	}
	if len(rep.OutlierIndices) != 1 || rep.OutlierIndices[0] != 7 {
		t.Errorf("outlier indices = %v, want [7]", rep.OutlierIndices)
	}
	if rep.OutlierRatePct != 5 {
		t.Errorf("outlier rate = %v, want 5", rep.OutlierRatePct)
	}
	if rep.OutlierLabel != "low" {
		t.Errorf("outlier label = %q, want low", rep.OutlierLabel)
	}
}

func TestAnalyzeTrendShiftPointCap(t *testing.T) {
	// Sawtooth with big level changes produces many shift candidates.
	deviations := make([]float64, 120)
	for i := range deviations {
		if (i/30)%2 == 0 {
			deviations[i] = 10
		} else {
			deviations[i] = 5000
		}
	}
	rep, err := AnalyzeTrend(detailed(t, "X", deviations, nil))
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if len(rep.ShiftPoints) > 3 {
		t.Errorf("reported shift points = %d, want at most 3", len(rep.ShiftPoints))
	}
	if len(rep.ShiftPoints) == 3 && rep.ExtraShiftCount == 0 {
		t.Log("exactly three shift points, none truncated")
	}
}

func TestAnalyzeTrendSortsByBlockNumber(t *testing.T) {
	// Records intentionally shuffled; drift must come out degrading once
	// sorted by block number.
	records := make([]series.BlockRecord, 0, 40)
	for i := 39; i >= 0; i-- {
		dev := 10.0
		if i >= 20 {
			dev = 2000
		}
		records = append(records, series.BlockRecord{
			BlockNumber:    int64(i),
			BlockTimestamp: 1_700_000_000 + float64(i)*2,
			DeviationMS:    dev,
		})
	}
	s, err := series.NewDetailed("X", records)
	if err != nil {
		t.Fatalf("series.NewDetailed: %v", err)
	}

	rep, err := AnalyzeTrend(s)
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if rep.Drift != "degrading" {
		t.Errorf("drift = %q, want degrading", rep.Drift)
	}
}

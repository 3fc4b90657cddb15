package analysis

import (
	"errors"
	"math"
	"testing"

	"block-ts-audit/internal/series"
)

func mustSeries(t *testing.T, chain string, deviations []float64) *series.ChainSeries {
	t.Helper()
	s, err := series.New(chain, deviations)
	if err != nil {
		t.Fatalf("series.New: %v", err)
	}
	return s
}

func TestSummarizeDirectionalCounts(t *testing.T) {
	s := mustSeries(t, "X", []float64{100, 150, -50, 200, 120})

	sum, err := Summarize(s)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if sum.PastCount != 4 {
		t.Errorf("past count = %d, want 4", sum.PastCount)
	}
	if sum.FutureCount != 1 {
		t.Errorf("future count = %d, want 1", sum.FutureCount)
	}
	if sum.FuturePct != 20.0 {
		t.Errorf("future pct = %v, want 20.0", sum.FuturePct)
	}
	if sum.PastPct != 80.0 {
		t.Errorf("past pct = %v, want 80.0", sum.PastPct)
	}
	if sum.MaxMS != 200 {
		t.Errorf("max = %v, want 200", sum.MaxMS)
	}
	if sum.MinMS != -50 {
		t.Errorf("min = %v, want -50", sum.MinMS)
	}
}

func TestSummarizeAllPositive(t *testing.T) {
	s := mustSeries(t, "X", []float64{10, 20, 30})

	sum, err := Summarize(s)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.FuturePct != 0 {
		t.Errorf("future pct = %v, want 0", sum.FuturePct)
	}
	if sum.PastPct != 100 {
		t.Errorf("past pct = %v, want 100", sum.PastPct)
	}
}

func TestSummarizeNilAndEmpty(t *testing.T) {
	if _, err := Summarize(nil); !errors.Is(err, series.ErrEmptySeries) {
		t.Fatalf("nil series: err = %v, want ErrEmptySeries", err)
	}

	if _, err := series.New("X", nil); !errors.Is(err, series.ErrEmptySeries) {
		t.Fatalf("empty series should be rejected at construction, got %v", err)
	}
}

func TestPercentileMonotonic(t *testing.T) {
	values := []float64{42, -7, 1300, 5, 5, 88, -200, 0, 17, 950}

	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p++ {
		v := Percentile(values, p)
		if v < prev {
			t.Fatalf("percentile %v = %v below previous %v", p, v, prev)
		}
		prev = v
	}

	if got := Percentile(values, 0); got != -200 {
		t.Errorf("p0 = %v, want sample min -200", got)
	}
	if got := Percentile(values, 100); got != 1300 {
		t.Errorf("p100 = %v, want sample max 1300", got)
	}
}

func TestPercentileSingleValue(t *testing.T) {
	for _, p := range []float64{0, 1, 50, 99, 100} {
		if got := Percentile([]float64{417}, p); got != 417 {
			t.Errorf("p%v of single-value sample = %v, want 417", p, got)
		}
	}
}

func TestPercentileInterpolation(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	// rank 50/100*(4-1) = 1.5 lands between 20 and 30.
	if got := Percentile(values, 50); got != 25 {
		t.Errorf("median = %v, want 25", got)
	}
}

func TestSummaryQuantilesBracketMedian(t *testing.T) {
	s := mustSeries(t, "X", []float64{5, -3, 12, 88, 40, 7, -1, 66})

	sum, err := Summarize(s)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Signed.P25 > sum.Signed.Median || sum.Signed.Median > sum.Signed.P75 {
		t.Errorf("quantiles not ordered: p25=%v median=%v p75=%v", sum.Signed.P25, sum.Signed.Median, sum.Signed.P75)
	}
	if len(sum.SignedPercentiles) != 99 || len(sum.AbsPercentiles) != 99 {
		t.Fatalf("expected 99 percentiles, got %d signed / %d abs", len(sum.SignedPercentiles), len(sum.AbsPercentiles))
	}
}

func TestStdDevConstant(t *testing.T) {
	if got := StdDev([]float64{500, 500, 500}); got != 0 {
		t.Errorf("std of constant sample = %v, want 0", got)
	}
	if got := StdDev([]float64{500}); got != 0 {
		t.Errorf("std of single sample = %v, want 0", got)
	}
}

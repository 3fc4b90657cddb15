package report

import (
	"strings"
	"testing"

	"block-ts-audit/internal/analysis"
	"block-ts-audit/internal/series"
)

func TestHistogramAlignsBinsToWidth(t *testing.T) {
	bins := Histogram([]float64{-120, -30, 10, 95, 210}, 100)
	if len(bins) != 5 {
		t.Fatalf("got %d bins, want 5", len(bins))
	}
	if bins[0].LowMS != -200 || bins[0].HighMS != -100 {
		t.Fatalf("first bin [%v,%v), want [-200,-100)", bins[0].LowMS, bins[0].HighMS)
	}
	if bins[len(bins)-1].LowMS != 200 {
		t.Fatalf("last bin starts at %v, want 200", bins[len(bins)-1].LowMS)
	}

	total := 0
	for _, bin := range bins {
		total += bin.Count
	}
	if total != 5 {
		t.Fatalf("counts sum to %d, want 5", total)
	}
	if bins[0].Count != 1 {
		t.Fatalf("bin [-200,-100) count = %d, want 1", bins[0].Count)
	}
	if bins[1].Count != 1 {
		t.Fatalf("bin [-100,0) count = %d, want 1", bins[1].Count)
	}
	if bins[2].Count != 2 {
		t.Fatalf("bin [0,100) count = %d, want 2", bins[2].Count)
	}
}

func TestHistogramSingleValue(t *testing.T) {
	bins := Histogram([]float64{250}, 100)
	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1", len(bins))
	}
	if bins[0].LowMS != 200 || bins[0].Count != 1 {
		t.Fatalf("unexpected bin: %+v", bins[0])
	}
}

func TestHistogramRejectsBadInput(t *testing.T) {
	if bins := Histogram(nil, 100); bins != nil {
		t.Fatalf("empty input should yield nil, got %v", bins)
	}
	if bins := Histogram([]float64{1, 2}, 0); bins != nil {
		t.Fatalf("zero width should yield nil, got %v", bins)
	}
}

func buildReport(t *testing.T, chain string, deviations []float64) ChainReport {
	t.Helper()

	s, err := series.New(chain, deviations)
	if err != nil {
		t.Fatalf("series.New failed: %v", err)
	}
	summary, err := analysis.Summarize(s)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	window, err := analysis.Simulate(s, 15000)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	return ChainReport{
		ChainID: chain,
		Series:  s,
		Summary: summary,
		Window:  window,
		Tiers:   analysis.Classify(summary, window),
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf strings.Builder
	if err := WriteText(&buf, nil, 100); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no chains with usable data") {
		t.Fatalf("missing empty notice in %q", buf.String())
	}
}

func TestWriteTextRendersSections(t *testing.T) {
	rep := buildReport(t, "base", []float64{100, 150, -50, 200, 120})
	rep.TrendSkipped = "trend analysis needs 10 samples, have 5"

	var buf strings.Builder
	if err := WriteText(&buf, []ChainReport{rep}, 100); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"===== base =====",
		"Total blocks",
		"Past timestamps",
		"Batch window",
		"Recommended window",
		"Batching suitability",
		"Trend",
		"skipped",
		"Delta distribution",
		"#",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

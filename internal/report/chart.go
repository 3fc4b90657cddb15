package report

import (
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"

	"block-ts-audit/internal/analysis"
)

// WriteDistributionPNG renders one chain's delta histogram as a bar chart.
func WriteDistributionPNG(path string, rep ChainReport, binWidthMS float64) error {
	bins := Histogram(rep.Series.Deviations(), binWidthMS)
	if len(bins) == 0 {
		return fmt.Errorf("no data to chart for %s", rep.ChainID)
	}

	bars := make([]chart.Value, len(bins))
	for i, bin := range bins {
		bars[i] = chart.Value{
			Value: float64(bin.Count),
			Label: fmt.Sprintf("%.0f", bin.LowMS),
		}
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s block timestamp deltas (ms)", rep.ChainID),
		Width:    1280,
		Height:   720,
		BarWidth: maxInt(1200/len(bars)-2, 2),
		Bars:     bars,
	}

	return renderPNG(path, func(file *os.File) error {
		return graph.Render(chart.PNG, file)
	})
}

// WritePercentilesPNG renders the signed-delta percentile curves of every
// chain on one chart.
func WritePercentilesPNG(path string, summaries []*analysis.Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no summaries to chart")
	}

	xs := make([]float64, 99)
	for i := range xs {
		xs[i] = float64(i + 1)
	}

	seriesList := make([]chart.Series, 0, len(summaries))
	for _, sum := range summaries {
		seriesList = append(seriesList, chart.ContinuousSeries{
			Name:    sum.ChainID,
			XValues: xs,
			YValues: sum.SignedPercentiles,
		})
	}

	graph := chart.Chart{
		Title:  "Timestamp delta percentiles",
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Name: "Percentile",
		},
		YAxis: chart.YAxis{
			Name: "Delta (ms)",
		},
		Series: seriesList,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(path, func(file *os.File) error {
		return graph.Render(chart.PNG, file)
	})
}

func renderPNG(path string, render func(*os.File) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return render(file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package analysis

import (
	"fmt"
	"math"

	"block-ts-audit/internal/series"
)

const (
	// minRecommendedWindowMS floors the recommended batch window at 5s.
	minRecommendedWindowMS = 5000
	// recommendationBuffer is the optional safety margin on the
	// recommended window.
	recommendationBuffer = 1.2
)

// WindowReport describes how a candidate batching window would perform
// against an observed sample.
type WindowReport struct {
	ChainID      string
	WindowMS     float64
	TotalSamples int

	MisBucketed    int
	MisBucketedPct float64
	// FutureCaused counts mis-bucketed samples with a future timestamp
	// (assigned to a batch too early), PastCaused the late ones.
	FutureCaused    int
	FutureCausedPct float64
	PastCaused      int
	PastCausedPct   float64

	AbsP99MS                    float64
	RecommendedWindowMS         float64
	RecommendedWindowBufferedMS float64

	Reliability string
}

// Simulate classifies every sample against the window: a sample is
// mis-bucketed when its absolute deviation exceeds the window.
func Simulate(s *series.ChainSeries, windowMS float64) (*WindowReport, error) {
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("%w: nothing to simulate", series.ErrEmptySeries)
	}
	if windowMS <= 0 {
		return nil, fmt.Errorf("batch window must be positive, got %v", windowMS)
	}

	deviations := s.Deviations()
	total := len(deviations)

	wrong, futureWrong, pastWrong := 0, 0, 0
	for _, d := range deviations {
		if math.Abs(d) <= windowMS {
			continue
		}
		wrong++
		if d < 0 {
			futureWrong++
		} else {
			pastWrong++
		}
	}

	absP99 := Percentile(absValues(deviations), 99)
	recommended := math.Max(2*absP99, minRecommendedWindowMS)

	misPct := float64(wrong) / float64(total) * 100

	return &WindowReport{
		ChainID:                     s.ChainID(),
		WindowMS:                    windowMS,
		TotalSamples:                total,
		MisBucketed:                 wrong,
		MisBucketedPct:              misPct,
		FutureCaused:                futureWrong,
		FutureCausedPct:             float64(futureWrong) / float64(total) * 100,
		PastCaused:                  pastWrong,
		PastCausedPct:               float64(pastWrong) / float64(total) * 100,
		AbsP99MS:                    absP99,
		RecommendedWindowMS:         recommended,
		RecommendedWindowBufferedMS: recommended * recommendationBuffer,
		Reliability:                 ReliabilityTier(misPct),
	}, nil
}

// ReliabilityTier maps a mis-bucketed percentage to a suitability label.
func ReliabilityTier(misBucketedPct float64) string {
	switch {
	case misBucketedPct < 1:
		return "extremely reliable"
	case misBucketedPct < 2:
		return "very reliable"
	case misBucketedPct < 5:
		return "reliable"
	case misBucketedPct < 10:
		return "moderately reliable"
	default:
		return "less reliable"
	}
}

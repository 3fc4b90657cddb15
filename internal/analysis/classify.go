package analysis

// Tiers are the human-facing suitability labels derived from the numeric
// outputs. All mappings are pure and total.
type Tiers struct {
	Accuracy    string
	Variability string
	Compliance  string
	Reliability string
}

// Classify derives the tier set from a summary and a window report.
func Classify(sum *Summary, win *WindowReport) Tiers {
	return Tiers{
		Accuracy:    AccuracyTier(sum.Abs.Median),
		Variability: VariabilityTier(sum.StdAbsMS),
		Compliance:  ComplianceTier(sum.FuturePct),
		Reliability: win.Reliability,
	}
}

// AccuracyTier grades the median absolute deviation in milliseconds.
func AccuracyTier(medianAbsMS float64) string {
	switch {
	case medianAbsMS < 200:
		return "excellent"
	case medianAbsMS < 500:
		return "good"
	case medianAbsMS < 1000:
		return "moderate"
	default:
		return "lower"
	}
}

// VariabilityTier grades the standard deviation of absolute deviation.
func VariabilityTier(stdAbsMS float64) string {
	switch {
	case stdAbsMS < 300:
		return "low"
	case stdAbsMS < 800:
		return "moderate"
	default:
		return "high"
	}
}

// ComplianceTier grades the share of future-dated timestamps.
func ComplianceTier(futurePct float64) string {
	switch {
	case futurePct < 5:
		return "highly compliant"
	case futurePct < 15:
		return "mostly compliant"
	default:
		return "less compliant"
	}
}

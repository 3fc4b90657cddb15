package analysis

import "testing"

func TestAccuracyTier(t *testing.T) {
	cases := []struct {
		median float64
		want   string
	}{
		{0, "excellent"},
		{199.9, "excellent"},
		{200, "good"},
		{499, "good"},
		{500, "moderate"},
		{999, "moderate"},
		{1000, "lower"},
		{50000, "lower"},
	}
	for _, tc := range cases {
		if got := AccuracyTier(tc.median); got != tc.want {
			t.Errorf("AccuracyTier(%v) = %q, want %q", tc.median, got, tc.want)
		}
	}
}

func TestVariabilityTier(t *testing.T) {
	cases := []struct {
		std  float64
		want string
	}{
		{0, "low"},
		{299, "low"},
		{300, "moderate"},
		{799, "moderate"},
		{800, "high"},
	}
	for _, tc := range cases {
		if got := VariabilityTier(tc.std); got != tc.want {
			t.Errorf("VariabilityTier(%v) = %q, want %q", tc.std, got, tc.want)
		}
	}
}

func TestComplianceTier(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{0, "highly compliant"},
		{4.99, "highly compliant"},
		{5, "mostly compliant"},
		{14.9, "mostly compliant"},
		{15, "less compliant"},
		{100, "less compliant"},
	}
	for _, tc := range cases {
		if got := ComplianceTier(tc.pct); got != tc.want {
			t.Errorf("ComplianceTier(%v) = %q, want %q", tc.pct, got, tc.want)
		}
	}
}

func TestClassifyCombines(t *testing.T) {
	s := mustSeries(t, "X", []float64{100, 120, 90, -80, 110, 95, 105, 130})

	sum, err := Summarize(s)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	win, err := Simulate(s, 15000)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	tiers := Classify(sum, win)
	if tiers.Accuracy != "excellent" {
		t.Errorf("accuracy = %q, want excellent", tiers.Accuracy)
	}
	if tiers.Variability != "low" {
		t.Errorf("variability = %q, want low", tiers.Variability)
	}
	if tiers.Reliability != win.Reliability {
		t.Errorf("reliability = %q, want %q", tiers.Reliability, win.Reliability)
	}
}

package series

import (
	"errors"
	"testing"
)

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New("Optimism", nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("err = %v, want ErrEmptySeries", err)
	}
	if _, err := NewDetailed("Optimism", nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("err = %v, want ErrEmptySeries", err)
	}
}

func TestNewCopiesInput(t *testing.T) {
	input := []float64{1, 2, 3}
	s, err := New("Base", input)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	input[0] = 999
	if s.Deviations()[0] != 1 {
		t.Error("series aliases caller's slice")
	}
}

func TestNewDetailedSortsAndProjects(t *testing.T) {
	records := []BlockRecord{
		{BlockNumber: 30, BlockTimestamp: 1030, DeviationMS: 300},
		{BlockNumber: 10, BlockTimestamp: 1010, DeviationMS: 100},
		{BlockNumber: 20, BlockTimestamp: 1020, DeviationMS: 200},
	}

	s, err := NewDetailed("Base", records)
	if err != nil {
		t.Fatalf("NewDetailed: %v", err)
	}

	sorted := s.Records()
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].BlockNumber >= sorted[i].BlockNumber {
			t.Fatalf("records not sorted by block number: %v", sorted)
		}
	}

	want := []float64{100, 200, 300}
	got := s.Deviations()
	if len(got) != len(want) {
		t.Fatalf("deviation count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("deviation[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Input slice must stay untouched.
	if records[0].BlockNumber != 30 {
		t.Error("NewDetailed sorted the caller's slice in place")
	}

	if !s.HasRecords() {
		t.Error("detailed series should report records")
	}
}

func TestInsufficientSampleError(t *testing.T) {
	err := &InsufficientSampleError{Analysis: "shift detection", Need: 30, Have: 12}

	var target *InsufficientSampleError
	if !errors.As(error(err), &target) {
		t.Fatal("errors.As failed")
	}
	if err.Error() == "" {
		t.Fatal("empty error message")
	}
}

func TestWithPrecomputed(t *testing.T) {
	s, err := New("Unichain", []float64{5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Precomputed() != nil {
		t.Fatal("fresh series should have no precomputed stats")
	}

	stats := &PrecomputedStats{TotalBlocks: 1, PastBlocks: 1}
	if got := s.WithPrecomputed(stats).Precomputed(); got != stats {
		t.Fatal("precomputed stats not attached")
	}
}

package series

import (
	"fmt"
	"sort"
)

// BlockRecord is a single observed block with its raw timing data.
type BlockRecord struct {
	BlockNumber    int64
	BlockTimestamp float64 // unix seconds, as reported by the block itself
	DeviationMS    float64 // received time minus block timestamp; positive = past
}

// PrecomputedStats carries a summary row loaded from a <chain>_stats.csv file.
// It is informational only; the engine always recomputes from raw deltas.
type PrecomputedStats struct {
	TotalBlocks      int
	PastBlocks       int
	FutureBlocks     int
	AvgDeltaMS       float64
	MaxPastDeltaMS   float64
	MaxFutureDeltaMS float64
}

// ChainSeries is one chain's complete, chronological deviation sample.
// It is immutable after construction; accessors return the internal slices
// and callers must treat them as read-only.
type ChainSeries struct {
	chainID     string
	deviations  []float64
	records     []BlockRecord
	precomputed *PrecomputedStats
}

// New builds a deltas-only series. The sample must be non-empty.
func New(chainID string, deviations []float64) (*ChainSeries, error) {
	if len(deviations) == 0 {
		return nil, fmt.Errorf("%w: chain %s", ErrEmptySeries, chainID)
	}
	copied := make([]float64, len(deviations))
	copy(copied, deviations)
	return &ChainSeries{chainID: chainID, deviations: copied}, nil
}

// NewDetailed builds a series from per-block records. Records are sorted by
// block number on a copy; input order is never trusted.
func NewDetailed(chainID string, records []BlockRecord) (*ChainSeries, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: chain %s", ErrEmptySeries, chainID)
	}

	copied := make([]BlockRecord, len(records))
	copy(copied, records)
	sort.Slice(copied, func(i, j int) bool {
		return copied[i].BlockNumber < copied[j].BlockNumber
	})

	deviations := make([]float64, len(copied))
	for i, rec := range copied {
		deviations[i] = rec.DeviationMS
	}

	return &ChainSeries{chainID: chainID, deviations: deviations, records: copied}, nil
}

// WithPrecomputed attaches a loaded summary row and returns the same series.
func (s *ChainSeries) WithPrecomputed(stats *PrecomputedStats) *ChainSeries {
	s.precomputed = stats
	return s
}

// ChainID returns the chain identifier.
func (s *ChainSeries) ChainID() string { return s.chainID }

// Len returns the sample size.
func (s *ChainSeries) Len() int { return len(s.deviations) }

// Deviations returns the signed deviations in milliseconds.
func (s *ChainSeries) Deviations() []float64 { return s.deviations }

// Records returns the per-block records, or nil for a deltas-only series.
func (s *ChainSeries) Records() []BlockRecord { return s.records }

// HasRecords reports whether raw per-block data is available.
func (s *ChainSeries) HasRecords() bool { return len(s.records) > 0 }

// Precomputed returns the attached summary row, or nil.
func (s *ChainSeries) Precomputed() *PrecomputedStats { return s.precomputed }

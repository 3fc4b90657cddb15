package collector

import (
	"sync"
	"time"

	"block-ts-audit/internal/series"
)

// RunningStats accumulates per-chain deviation observations while the
// collector runs. Safe for concurrent use: the poll loop writes while the
// flush scheduler reads snapshots.
type RunningStats struct {
	mu sync.Mutex

	chain   string
	total   int
	past    int
	future  int
	sumMS   float64
	maxPast float64
	// maxFuture is stored as a positive magnitude.
	maxFuture float64
	records   []series.BlockRecord
}

// StatsSnapshot is an immutable copy of the running totals.
type StatsSnapshot struct {
	Chain            string
	TotalBlocks      int
	PastBlocks       int
	FutureBlocks     int
	AvgDeltaMS       float64
	MaxPastDeltaMS   float64
	MaxFutureDeltaMS float64
	Records          []series.BlockRecord
}

// NewRunningStats constructs an empty accumulator for a chain.
func NewRunningStats(chain string) *RunningStats {
	return &RunningStats{chain: chain}
}

// Observe folds one block into the totals. The deviation is the received
// wall-clock time minus the block's own timestamp, in milliseconds.
func (s *RunningStats) Observe(blockNumber uint64, blockTimestamp uint64, received time.Time) float64 {
	deltaMS := float64(received.UnixMilli() - int64(blockTimestamp)*1000)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.sumMS += deltaMS
	if deltaMS > 0 {
		s.past++
		if deltaMS > s.maxPast {
			s.maxPast = deltaMS
		}
	} else {
		s.future++
		if -deltaMS > s.maxFuture {
			s.maxFuture = -deltaMS
		}
	}

	s.records = append(s.records, series.BlockRecord{
		BlockNumber:    int64(blockNumber),
		BlockTimestamp: float64(blockTimestamp),
		DeviationMS:    deltaMS,
	})

	return deltaMS
}

// Snapshot copies the current totals and records.
func (s *RunningStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]series.BlockRecord, len(s.records))
	copy(records, s.records)

	avg := 0.0
	if s.total > 0 {
		avg = s.sumMS / float64(s.total)
	}

	return StatsSnapshot{
		Chain:            s.chain,
		TotalBlocks:      s.total,
		PastBlocks:       s.past,
		FutureBlocks:     s.future,
		AvgDeltaMS:       avg,
		MaxPastDeltaMS:   s.maxPast,
		MaxFutureDeltaMS: s.maxFuture,
		Records:          records,
	}
}

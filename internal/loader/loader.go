// Package loader reads the CSV files written by the collector back into
// per-chain deviation series.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"block-ts-audit/internal/series"
)

const (
	deltasSuffix   = "_deltas.csv"
	detailedSuffix = "_detailed.csv"
	statsSuffix    = "_stats.csv"
)

// Loader reads chain samples from a log directory.
type Loader struct {
	dir    string
	logger zerolog.Logger
}

// New constructs a Loader rooted at dir.
func New(dir string, logger zerolog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger.With().Str("component", "loader").Logger()}
}

// DetectChains lists chains that have a deltas file in the directory.
func (l *Loader) DetectChains() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read logs dir: %w", err)
	}

	var chains []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, deltasSuffix) {
			continue
		}
		chains = append(chains, strings.TrimSuffix(name, deltasSuffix))
	}
	sort.Strings(chains)
	return chains, nil
}

// LoadChain loads one chain's sample. A detailed file is preferred when
// present so trend analysis is possible; precomputed stats are attached
// when a stats file exists. Returns ErrMissingData when the chain has no
// files at all.
func (l *Loader) LoadChain(chain string) (*series.ChainSeries, error) {
	detailedPath := filepath.Join(l.dir, chain+detailedSuffix)
	deltasPath := filepath.Join(l.dir, chain+deltasSuffix)

	var (
		s   *series.ChainSeries
		err error
	)

	switch {
	case fileExists(detailedPath):
		s, err = l.loadDetailed(chain, detailedPath)
	case fileExists(deltasPath):
		s, err = l.loadDeltas(chain, deltasPath)
	default:
		return nil, fmt.Errorf("%w: %s", series.ErrMissingData, chain)
	}
	if err != nil {
		return nil, err
	}

	statsPath := filepath.Join(l.dir, chain+statsSuffix)
	if fileExists(statsPath) {
		stats, statsErr := l.loadStats(statsPath)
		if statsErr != nil {
			l.logger.Warn().Err(statsErr).Str("chain", chain).Msg("ignoring unreadable stats file")
		} else {
			s.WithPrecomputed(stats)
		}
	}

	l.logger.Info().Str("chain", chain).Int("samples", s.Len()).Bool("detailed", s.HasRecords()).Msg("loaded chain sample")
	return s, nil
}

// LoadAll loads the given chains, or every detected chain when the list is
// empty. Chains without data are skipped with a warning; the rest of the
// run proceeds.
func (l *Loader) LoadAll(chains []string) (map[string]*series.ChainSeries, error) {
	if len(chains) == 0 {
		detected, err := l.DetectChains()
		if err != nil {
			return nil, err
		}
		chains = detected
	}

	loaded := make(map[string]*series.ChainSeries, len(chains))
	for _, chain := range chains {
		s, err := l.LoadChain(chain)
		if err != nil {
			if errors.Is(err, series.ErrMissingData) || errors.Is(err, series.ErrEmptySeries) {
				l.logger.Warn().Err(err).Str("chain", chain).Msg("skipping chain")
				continue
			}
			return nil, err
		}
		loaded[chain] = s
	}
	return loaded, nil
}

func (l *Loader) loadDeltas(chain, path string) (*series.ChainSeries, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	col, err := columnIndex(header, "Delta (ms)")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	deviations := make([]float64, 0, len(rows))
	for i, row := range rows {
		v, parseErr := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if parseErr != nil {
			return nil, fmt.Errorf("%s row %d: parse delta: %w", path, i+2, parseErr)
		}
		deviations = append(deviations, v)
	}

	return series.New(chain, deviations)
}

func (l *Loader) loadDetailed(chain, path string) (*series.ChainSeries, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	numberCol, err := columnIndex(header, "Block Number")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tsCol, err := columnIndex(header, "Block Timestamp (s)")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	deltaCol, err := columnIndex(header, "Delta (ms)")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	records := make([]series.BlockRecord, 0, len(rows))
	for i, row := range rows {
		number, parseErr := strconv.ParseInt(strings.TrimSpace(row[numberCol]), 10, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("%s row %d: parse block number: %w", path, i+2, parseErr)
		}
		ts, parseErr := strconv.ParseFloat(strings.TrimSpace(row[tsCol]), 64)
		if parseErr != nil {
			return nil, fmt.Errorf("%s row %d: parse block timestamp: %w", path, i+2, parseErr)
		}
		delta, parseErr := strconv.ParseFloat(strings.TrimSpace(row[deltaCol]), 64)
		if parseErr != nil {
			return nil, fmt.Errorf("%s row %d: parse delta: %w", path, i+2, parseErr)
		}
		records = append(records, series.BlockRecord{BlockNumber: number, BlockTimestamp: ts, DeviationMS: delta})
	}

	return series.NewDetailed(chain, records)
}

func (l *Loader) loadStats(path string) (*series.PrecomputedStats, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}
	row := rows[0]

	stats := &series.PrecomputedStats{}
	intFields := map[string]*int{
		"Total Blocks":            &stats.TotalBlocks,
		"Past Timestamp Blocks":   &stats.PastBlocks,
		"Future Timestamp Blocks": &stats.FutureBlocks,
	}
	floatFields := map[string]*float64{
		"Avg Delta (ms)":        &stats.AvgDeltaMS,
		"Max Past Delta (ms)":   &stats.MaxPastDeltaMS,
		"Max Future Delta (ms)": &stats.MaxFutureDeltaMS,
	}

	for name, dst := range intFields {
		col, colErr := columnIndex(header, name)
		if colErr != nil {
			return nil, fmt.Errorf("%s: %w", path, colErr)
		}
		v, parseErr := strconv.Atoi(strings.TrimSpace(row[col]))
		if parseErr != nil {
			return nil, fmt.Errorf("%s: parse %q: %w", path, name, parseErr)
		}
		*dst = v
	}
	for name, dst := range floatFields {
		col, colErr := columnIndex(header, name)
		if colErr != nil {
			return nil, fmt.Errorf("%s: %w", path, colErr)
		}
		v, parseErr := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if parseErr != nil {
			return nil, fmt.Errorf("%s: parse %q: %w", path, name, parseErr)
		}
		*dst = v
	}

	return stats, nil
}

func readCSV(path string) (rows [][]string, header []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s: missing header", path)
	}
	return all[1:], all[0], nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, col := range header {
		if strings.TrimSpace(col) == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found", name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package collector

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV flushes a snapshot to the three per-chain files the analyzer
// reads: <chain>_stats.csv, <chain>_deltas.csv, <chain>_detailed.csv.
// Files are rewritten whole on every flush.
func (snap StatsSnapshot) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := snap.writeStats(filepath.Join(dir, snap.Chain+"_stats.csv")); err != nil {
		return err
	}
	if err := snap.writeDeltas(filepath.Join(dir, snap.Chain+"_deltas.csv")); err != nil {
		return err
	}
	return snap.writeDetailed(filepath.Join(dir, snap.Chain+"_detailed.csv"))
}

func (snap StatsSnapshot) writeStats(path string) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		header := []string{
			"Chain",
			"Total Blocks",
			"Past Timestamp Blocks",
			"Future Timestamp Blocks",
			"Max Past Delta (ms)",
			"Max Future Delta (ms)",
			"Avg Delta (ms)",
		}
		if err := w.Write(header); err != nil {
			return err
		}
		return w.Write([]string{
			snap.Chain,
			strconv.Itoa(snap.TotalBlocks),
			strconv.Itoa(snap.PastBlocks),
			strconv.Itoa(snap.FutureBlocks),
			formatFloat(snap.MaxPastDeltaMS),
			formatFloat(snap.MaxFutureDeltaMS),
			formatFloat(snap.AvgDeltaMS),
		})
	})
}

func (snap StatsSnapshot) writeDeltas(path string) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"Delta (ms)"}); err != nil {
			return err
		}
		for _, rec := range snap.Records {
			if err := w.Write([]string{formatFloat(rec.DeviationMS)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (snap StatsSnapshot) writeDetailed(path string) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"Block Number", "Block Timestamp (s)", "Delta (ms)"}); err != nil {
			return err
		}
		for _, rec := range snap.Records {
			row := []string{
				strconv.FormatInt(rec.BlockNumber, 10),
				formatFloat(rec.BlockTimestamp),
				formatFloat(rec.DeviationMS),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSVFile(path string, fill func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := fill(writer); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

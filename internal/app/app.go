package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"block-ts-audit/internal/config"
	"block-ts-audit/internal/series"
	"block-ts-audit/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI
// commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// loadFromStore rebuilds detailed series from persisted observations.
func (a *App) loadFromStore(ctx context.Context, store *storage.Store, chains []string) (map[string]*series.ChainSeries, error) {
	if store == nil {
		return nil, errors.New("database not configured; cannot load from store")
	}

	if len(chains) == 0 {
		detected, err := store.ListChains(ctx)
		if err != nil {
			return nil, err
		}
		chains = detected
	}

	loaded := make(map[string]*series.ChainSeries, len(chains))
	for _, chain := range chains {
		observations, err := store.ListObservations(ctx, chain)
		if err != nil {
			return nil, fmt.Errorf("load chain %s: %w", chain, err)
		}
		if len(observations) == 0 {
			a.Logger.Warn().Str("chain", chain).Msg("no stored observations; skipping chain")
			continue
		}

		records := make([]series.BlockRecord, len(observations))
		for i, obs := range observations {
			records[i] = series.BlockRecord{
				BlockNumber:    obs.BlockNumber,
				BlockTimestamp: obs.BlockTimestampS,
				DeviationMS:    obs.DeltaMS,
			}
		}
		s, err := series.NewDetailed(chain, records)
		if err != nil {
			return nil, err
		}
		loaded[chain] = s
	}
	return loaded, nil
}

// AnalyzeOptions configure the analyze command.
type AnalyzeOptions struct {
	Chains   []string
	WindowMS float64
	// LogsDir overrides the collector output dir as CSV source.
	LogsDir string
	// FromDB reads persisted observations instead of CSV files.
	FromDB bool
	// ChartDir, when set, writes PNG charts alongside the text report.
	ChartDir string
	Out      io.Writer
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
	Out   io.Writer
}

// ExportOptions configure the export command.
type ExportOptions struct {
	Chains []string
	// LogsDir overrides the CSV source directory.
	LogsDir string
	FromDB  bool
	// OutDir receives the rendered charts.
	OutDir string
	// CSVDir, when set, additionally rewrites per-chain CSV files there.
	CSVDir string
}

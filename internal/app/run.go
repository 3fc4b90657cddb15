package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"block-ts-audit/internal/collector"
	"block-ts-audit/internal/metrics"
	"block-ts-audit/internal/storage"
)

// Run executes a collection run: poll all configured chains, persist
// observations when a database is configured, and flush CSV stats on the
// report interval.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(a.Config.Collector.Chains) == 0 {
		return errors.New("collector.chains is empty; nothing to monitor")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if store != nil && a.Config.Database.AdvisoryLockKey != 0 {
		unlock, acquired, lockErr := store.TryAdvisoryLock(ctx, a.Config.Database.AdvisoryLockKey)
		if lockErr != nil {
			return lockErr
		}
		if !acquired {
			return errors.New("another collector holds the advisory lock")
		}
		defer unlock()
	}

	var instruments *metrics.Metrics
	var hook collector.ObserveHook
	var pollErrorHook func(chain string)
	if a.Config.Metrics.Enabled {
		instruments = metrics.New()
		hook = instruments.ObserveBlock
		pollErrorHook = instruments.ObservePollError
		go func() {
			if err := instruments.Serve(ctx, a.Config.Metrics.Listen, a.Logger); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	var obsStore storage.ObservationStore
	if store != nil {
		obsStore = store
	}

	monitors := make([]*collector.Monitor, 0, len(a.Config.Collector.Chains))
	for _, chain := range a.Config.Collector.Chains {
		monitors = append(monitors, collector.NewMonitor(
			chain.Name,
			chain.RPCURL,
			a.Config.Collector.RequestTimeout,
			obsStore,
			hook,
			a.Logger,
		))
	}

	coll := collector.New(monitors, collector.Options{
		PollInterval:   a.Config.Collector.PollInterval,
		ReportInterval: a.Config.Collector.ReportInterval,
		Duration:       a.Config.Collector.Duration,
		OutputDir:      a.Config.Collector.OutputDir,
		PollErrorHook:  pollErrorHook,
	}, a.Logger)

	a.Logger.Info().Msg("starting block timestamp collection")
	err = coll.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("collection terminated with error")
		return err
	}

	a.Logger.Info().Msg("collection stopped")
	return nil
}

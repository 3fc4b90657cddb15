// Package collector polls chains for new blocks and records the deviation
// between each block's self-reported timestamp and its receipt time.
package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"block-ts-audit/internal/scheduler"
)

// Options tune a collection run.
type Options struct {
	PollInterval   time.Duration
	ReportInterval time.Duration
	// Duration bounds the run; zero means run until cancelled.
	Duration  time.Duration
	OutputDir string
	// PollErrorHook is called for each failed poll, e.g. to bump a metric.
	PollErrorHook func(chain string)
}

// Collector drives a set of chain monitors and periodically flushes their
// stats to CSV.
type Collector struct {
	monitors []*Monitor
	opts     Options
	logger   zerolog.Logger
}

// New assembles a collector over the given monitors.
func New(monitors []*Monitor, opts Options, logger zerolog.Logger) *Collector {
	return &Collector{
		monitors: monitors,
		opts:     opts,
		logger:   logger.With().Str("component", "collector").Logger(),
	}
}

// Run polls all chains until the context is cancelled or the configured
// duration elapses, then writes a final flush. A failing chain is logged
// and the others continue.
func (c *Collector) Run(ctx context.Context) error {
	if len(c.monitors) == 0 {
		return errors.New("no chains configured")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if c.opts.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Duration)
		defer cancel()
	}

	defer func() {
		for _, m := range c.monitors {
			m.Close()
		}
	}()

	flusher := scheduler.New(scheduler.Options{Interval: c.opts.ReportInterval}, c.logger)
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		_ = flusher.Run(runCtx, func(ctx context.Context, _ time.Time) error {
			c.flush()
			return nil
		})
	}()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	c.logger.Info().
		Int("chains", len(c.monitors)).
		Dur("poll_interval", c.opts.PollInterval).
		Msg("collection started")

loop:
	for {
		select {
		case <-runCtx.Done():
			break loop
		case <-ticker.C:
			for _, m := range c.monitors {
				if err := m.Poll(runCtx); err != nil {
					if errors.Is(err, context.Canceled) {
						break loop
					}
					c.logger.Error().Err(err).Str("chain", m.Name()).Msg("poll failed")
					if c.opts.PollErrorHook != nil {
						c.opts.PollErrorHook(m.Name())
					}
				}
			}
		}
	}

	<-flushDone
	c.flush()
	c.logFinal()

	// A run that stopped because its duration elapsed has succeeded.
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (c *Collector) flush() {
	for _, m := range c.monitors {
		snap := m.Stats().Snapshot()
		if snap.TotalBlocks == 0 {
			continue
		}
		if err := snap.WriteCSV(c.opts.OutputDir); err != nil {
			c.logger.Error().Err(err).Str("chain", snap.Chain).Msg("failed to write csv")
			continue
		}
		c.logger.Info().
			Str("chain", snap.Chain).
			Int("blocks", snap.TotalBlocks).
			Float64("avg_delta_ms", snap.AvgDeltaMS).
			Msg("stats flushed")
	}
}

func (c *Collector) logFinal() {
	for _, m := range c.monitors {
		snap := m.Stats().Snapshot()
		c.logger.Info().
			Str("chain", snap.Chain).
			Int("blocks", snap.TotalBlocks).
			Int("past", snap.PastBlocks).
			Int("future", snap.FutureBlocks).
			Float64("max_past_ms", snap.MaxPastDeltaMS).
			Float64("max_future_ms", snap.MaxFutureDeltaMS).
			Float64("avg_delta_ms", snap.AvgDeltaMS).
			Msg("final statistics")
	}
}

// Package metrics exposes collector counters over a Prometheus endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics bundles the collector's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	blocksObserved   *prometheus.CounterVec
	futureTimestamps *prometheus.CounterVec
	lastDeltaMS      *prometheus.GaugeVec
	pollErrors       *prometheus.CounterVec
}

// New builds a Metrics set on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		blocksObserved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsaudit",
			Name:      "blocks_observed_total",
			Help:      "Blocks observed per chain.",
		}, []string{"chain"}),
		futureTimestamps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsaudit",
			Name:      "future_timestamps_total",
			Help:      "Blocks whose timestamp was at or after receipt time.",
		}, []string{"chain"}),
		lastDeltaMS: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tsaudit",
			Name:      "last_delta_milliseconds",
			Help:      "Most recent timestamp deviation per chain.",
		}, []string{"chain"}),
		pollErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsaudit",
			Name:      "poll_errors_total",
			Help:      "RPC polling failures per chain.",
		}, []string{"chain"}),
	}
}

// ObserveBlock records one observed block and its deviation.
func (m *Metrics) ObserveBlock(chain string, deltaMS float64) {
	m.blocksObserved.WithLabelValues(chain).Inc()
	m.lastDeltaMS.WithLabelValues(chain).Set(deltaMS)
	if deltaMS <= 0 {
		m.futureTimestamps.WithLabelValues(chain).Inc()
	}
}

// ObservePollError records a failed poll for a chain.
func (m *Metrics) ObservePollError(chain string) {
	m.pollErrors.WithLabelValues(chain).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs an HTTP server for the metrics endpoint until ctx is
// cancelled.
func (m *Metrics) Serve(ctx context.Context, listen string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: listen, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info().Str("listen", listen).Msg("metrics endpoint started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

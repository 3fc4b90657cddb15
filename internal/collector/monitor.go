package collector

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"block-ts-audit/internal/storage"
)

// maxCatchupBlocks caps how far a single poll walks forward; an RPC
// returning a wild head number must not stall the loop for hours.
const maxCatchupBlocks = 256

// Monitor watches one chain for new blocks and records timestamp
// deviations.
type Monitor struct {
	name    string
	rpcURL  string
	timeout time.Duration
	logger  zerolog.Logger

	clientMux sync.Mutex
	client    *ethclient.Client

	lastBlock uint64
	primed    bool

	stats *RunningStats
	store storage.ObservationStore
	hook  ObserveHook
}

// ObserveHook is called for every observed block, e.g. to update metrics.
type ObserveHook func(chain string, deltaMS float64)

// NewMonitor builds a monitor for a single chain.
func NewMonitor(name, rpcURL string, timeout time.Duration, store storage.ObservationStore, hook ObserveHook, logger zerolog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Monitor{
		name:    name,
		rpcURL:  rpcURL,
		timeout: timeout,
		logger:  logger.With().Str("component", "monitor").Str("chain", name).Logger(),
		stats:   NewRunningStats(name),
		store:   store,
		hook:    hook,
	}
}

// Name returns the chain name.
func (m *Monitor) Name() string { return m.name }

// Stats returns the monitor's accumulator.
func (m *Monitor) Stats() *RunningStats { return m.stats }

// Poll fetches any blocks produced since the previous poll and folds
// their timestamp deviations into the running stats. The first poll only
// establishes a baseline.
func (m *Monitor) Poll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := m.getClient(ctx)
	if err != nil {
		return err
	}

	latest, err := client.BlockNumber(ctx)
	if err != nil {
		return err
	}

	if !m.primed {
		m.lastBlock = latest
		m.primed = true
		m.logger.Info().Uint64("block", latest).Msg("starting at block")
		return nil
	}

	if latest <= m.lastBlock {
		return nil
	}

	from := m.lastBlock + 1
	if latest-m.lastBlock > maxCatchupBlocks {
		m.logger.Warn().Uint64("behind", latest-m.lastBlock).Msg("head jumped; skipping ahead")
		from = latest - maxCatchupBlocks + 1
	}

	for number := from; number <= latest; number++ {
		if err := m.processBlock(ctx, client, number); err != nil {
			m.logger.Error().Err(err).Uint64("block", number).Msg("failed to process block")
			continue
		}
	}
	m.lastBlock = latest

	return nil
}

func (m *Monitor) processBlock(ctx context.Context, client *ethclient.Client, number uint64) error {
	header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return err
	}
	received := time.Now().UTC()

	deltaMS := m.stats.Observe(number, header.Time, received)
	if m.hook != nil {
		m.hook(m.name, deltaMS)
	}

	m.logger.Debug().
		Uint64("block", number).
		Uint64("block_ts", header.Time).
		Float64("delta_ms", deltaMS).
		Msg("block observed")

	if m.store != nil {
		obs := storage.Observation{
			Chain:           m.name,
			BlockNumber:     int64(number),
			BlockTimestampS: float64(header.Time),
			ReceivedAt:      received,
			DeltaMS:         deltaMS,
		}
		if err := m.store.UpsertObservation(ctx, obs); err != nil {
			m.logger.Error().Err(err).Uint64("block", number).Msg("failed to persist observation")
		}
	}

	return nil
}

func (m *Monitor) getClient(ctx context.Context) (*ethclient.Client, error) {
	m.clientMux.Lock()
	defer m.clientMux.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	if m.rpcURL == "" {
		return nil, errors.New("rpc url not configured")
	}

	client, err := ethclient.DialContext(ctx, m.rpcURL)
	if err != nil {
		return nil, err
	}
	m.client = client
	return client, nil
}

// Close releases the RPC client.
func (m *Monitor) Close() {
	m.clientMux.Lock()
	defer m.clientMux.Unlock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
}

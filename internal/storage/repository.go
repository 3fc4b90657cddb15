package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSchemaSQL = `CREATE TABLE IF NOT EXISTS block_observations (
        chain        TEXT NOT NULL,
        block_number BIGINT NOT NULL,
        block_ts_s   DOUBLE PRECISION NOT NULL,
        received_ts  TIMESTAMPTZ NOT NULL,
        delta_ms     DOUBLE PRECISION NOT NULL,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (chain, block_number)
    );
    CREATE TABLE IF NOT EXISTS analysis_reports (
        id         BIGSERIAL PRIMARY KEY,
        chain      TEXT NOT NULL,
        run_ts     TIMESTAMPTZ NOT NULL,
        report     JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	upsertObservationSQL = `INSERT INTO block_observations (
        chain,
        block_number,
        block_ts_s,
        received_ts,
        delta_ms
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (chain, block_number) DO UPDATE
    SET
        block_ts_s  = EXCLUDED.block_ts_s,
        received_ts = EXCLUDED.received_ts,
        delta_ms    = EXCLUDED.delta_ms;`

	listObservationsSQL = `SELECT
        chain,
        block_number,
        block_ts_s,
        received_ts,
        delta_ms,
        created_at
    FROM block_observations
    WHERE chain = $1
    ORDER BY block_number;`

	listRecentObservationsSQL = `SELECT
        chain,
        block_number,
        block_ts_s,
        received_ts,
        delta_ms,
        created_at
    FROM block_observations
    ORDER BY received_ts DESC
    LIMIT $1;`

	listChainsSQL = `SELECT DISTINCT chain FROM block_observations ORDER BY chain;`

	countObservationsSQL = `SELECT COUNT(*) FROM block_observations WHERE chain = $1;`

	insertReportSQL = `INSERT INTO analysis_reports (
        chain,
        run_ts,
        report
    ) VALUES (
        $1,$2,$3
    )
    RETURNING id, chain, run_ts, report, created_at;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// ObservationStore defines persistence for block observations.
type ObservationStore interface {
	UpsertObservation(ctx context.Context, obs Observation) error
	ListObservations(ctx context.Context, chain string) ([]Observation, error)
	ListRecentObservations(ctx context.Context, limit int) ([]Observation, error)
	ListChains(ctx context.Context) ([]string, error)
	CountObservations(ctx context.Context, chain string) (int64, error)
}

// ReportStore defines persistence for analysis reports.
type ReportStore interface {
	InsertReport(ctx context.Context, rec ReportRecord) (ReportRecord, error)
}

// AdvisoryLocker exposes advisory lock helpers, used so a single
// collector writes at a time.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to observations and reports.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSchemaSQL); execErr != nil {
		return fmt.Errorf("ensure schema: %w", execErr)
	}
	return nil
}

// UpsertObservation stores one block observation, replacing any previous
// row for the same chain and block.
func (s *Store) UpsertObservation(ctx context.Context, obs Observation) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	_, execErr := pool.Exec(ctx, upsertObservationSQL,
		obs.Chain,
		obs.BlockNumber,
		obs.BlockTimestampS,
		obs.ReceivedAt,
		obs.DeltaMS,
	)
	if execErr != nil {
		return fmt.Errorf("upsert observation: %w", execErr)
	}
	return nil
}

// ListObservations returns a chain's observations ordered by block number.
func (s *Store) ListObservations(ctx context.Context, chain string) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listObservationsSQL, chain)
	if queryErr != nil {
		return nil, fmt.Errorf("list observations: %w", queryErr)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ListRecentObservations returns the most recently received observations
// across all chains.
func (s *Store) ListRecentObservations(ctx context.Context, limit int) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentObservationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent observations: %w", queryErr)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ListChains returns the distinct chains with stored observations.
func (s *Store) ListChains(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listChainsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list chains: %w", queryErr)
	}
	defer rows.Close()

	var chains []string
	for rows.Next() {
		var chain string
		if scanErr := rows.Scan(&chain); scanErr != nil {
			return nil, scanErr
		}
		chains = append(chains, chain)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return chains, nil
}

// CountObservations counts one chain's stored observations.
func (s *Store) CountObservations(ctx context.Context, chain string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countObservationsSQL, chain).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count observations: %w", scanErr)
	}
	return count, nil
}

// InsertReport persists a chain's analysis output.
func (s *Store) InsertReport(ctx context.Context, rec ReportRecord) (ReportRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return ReportRecord{}, err
	}

	row := pool.QueryRow(ctx, insertReportSQL, rec.Chain, rec.RunAt, rec.Report)

	var stored ReportRecord
	if scanErr := row.Scan(
		&stored.ID,
		&stored.Chain,
		&stored.RunAt,
		&stored.Report,
		&stored.CreatedAt,
	); scanErr != nil {
		return ReportRecord{}, fmt.Errorf("insert report: %w", scanErr)
	}
	return stored, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and
// returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		defer conn.Release()
		var released bool
		_ = conn.QueryRow(context.Background(), advisoryUnlockSQL, key).Scan(&released)
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

func scanObservations(rows pgx.Rows) ([]Observation, error) {
	observations := make([]Observation, 0)
	for rows.Next() {
		var (
			obs        Observation
			receivedAt time.Time
			createdAt  time.Time
		)
		if err := rows.Scan(
			&obs.Chain,
			&obs.BlockNumber,
			&obs.BlockTimestampS,
			&receivedAt,
			&obs.DeltaMS,
			&createdAt,
		); err != nil {
			return nil, err
		}
		obs.ReceivedAt = receivedAt
		obs.CreatedAt = createdAt
		observations = append(observations, obs)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return observations, nil
}

var (
	_ ObservationStore = (*Store)(nil)
	_ ReportStore      = (*Store)(nil)
	_ AdvisoryLocker   = (*Store)(nil)
)

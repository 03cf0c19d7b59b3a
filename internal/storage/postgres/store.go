package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokenPlotter/internal/model"
)

const defaultBatchSize = 1000

// Store persists ratio traces in Postgres.
type Store struct {
	pool      *pgxpool.Pool
	batchSize int
}

func NewStore(ctx context.Context, dsn string, batchSize int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Store{pool: pool, batchSize: batchSize}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutTraces replaces the stored points of every trace in one transaction.
// Non-finite ratios are stored as NULL.
func (s *Store) PutTraces(ctx context.Context, base string, traces []*model.Trace) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, trace := range traces {
		batch.Queue(`DELETE FROM ratio_points WHERE base_symbol = $1 AND quote_symbol = $2`, base, trace.Name)
		for i, ts := range trace.Timestamps {
			var ratio *float64
			if v := trace.Values[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				ratio = &v
			}
			batch.Queue(`
				INSERT INTO ratio_points (base_symbol, quote_symbol, ts, ratio, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
				ON CONFLICT (base_symbol, quote_symbol, ts)
				DO UPDATE SET ratio = EXCLUDED.ratio, updated_at = now()
			`,
				base,
				trace.Name,
				time.Unix(ts, 0).UTC(),
				ratio,
			)
			if batch.Len() >= s.batchSize {
				if err := send(ctx, tx, batch); err != nil {
					return err
				}
				batch = &pgx.Batch{}
			}
		}
	}
	if err := send(ctx, tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func send(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("write ratio point: %w", err)
		}
	}
	return nil
}

// LoadTrace reads a stored trace back in timestamp order.
func (s *Store) LoadTrace(ctx context.Context, base, quote string) (*model.Trace, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ts, ratio FROM ratio_points
		WHERE base_symbol = $1 AND quote_symbol = $2
		ORDER BY ts
	`, base, quote)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trace := &model.Trace{Name: quote, Timestamps: []int64{}, Values: []float64{}}
	for rows.Next() {
		var ts time.Time
		var ratio *float64
		if err := rows.Scan(&ts, &ratio); err != nil {
			return nil, err
		}
		value := math.NaN()
		if ratio != nil {
			value = *ratio
		}
		trace.Timestamps = append(trace.Timestamps, ts.Unix())
		trace.Values = append(trace.Values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(trace.Timestamps) == 0 {
		return nil, &model.NotFoundError{Symbol: quote}
	}
	return trace, nil
}

// VerifyTraces reads every trace back and reports the first mismatch.
// NULL ratios compare equal to any non-finite value.
func (s *Store) VerifyTraces(ctx context.Context, base string, traces []*model.Trace) error {
	for _, want := range traces {
		if want.Len() == 0 {
			continue
		}
		got, err := s.LoadTrace(ctx, base, want.Name)
		if err != nil {
			return fmt.Errorf("read back %s/%s: %w", want.Name, base, err)
		}
		if got.Len() != want.Len() {
			return fmt.Errorf("read back %s/%s: got %d points, want %d", want.Name, base, got.Len(), want.Len())
		}
		for i := range want.Values {
			if got.Timestamps[i] != want.Timestamps[i] || !sameRatio(got.Values[i], want.Values[i]) {
				return fmt.Errorf("read back %s/%s: point %d differs", want.Name, base, i)
			}
		}
	}
	return nil
}

func sameRatio(a, b float64) bool {
	aFinite := !math.IsNaN(a) && !math.IsInf(a, 0)
	bFinite := !math.IsNaN(b) && !math.IsInf(b, 0)
	if !aFinite || !bFinite {
		return aFinite == bFinite
	}
	return a == b
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swaprelay/swaprelay/internal/domain"
)

// JournalStore implements domain.JournalStore using PostgreSQL. Every applied
// cache change is appended as a row; nothing is ever read back by the service,
// the tables exist for offline inspection only.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a new JournalStore backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

var _ domain.JournalStore = (*JournalStore)(nil)

// AppendPoolUpdate records a liquidity update for a trading pair.
func (s *JournalStore) AppendPoolUpdate(ctx context.Context, pair domain.TradingPair) error {
	const query = `
		INSERT INTO pool_updates (pool_key, token_a, token_b, amount_a, amount_b)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query,
		pair.Key(), pair.A.Name, pair.B.Name,
		pair.A.Amount.String(), pair.B.Amount.String(),
	)
	if err != nil {
		return fmt.Errorf("postgres: append pool update %s: %w", pair.Key(), err)
	}
	return nil
}

// AppendOrderBatch records the hashes that actually changed cache state in a
// single order event, one row per hash, using a pgx Batch.
func (s *JournalStore) AppendOrderBatch(ctx context.Context, result domain.OrderBatchResult) error {
	if len(result.Hashes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `INSERT INTO order_events (tx_hash, added) VALUES ($1, $2)`
	for _, hash := range result.Hashes {
		batch.Queue(query, hash, result.Added)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range result.Hashes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: append order batch item %d: %w", i, err)
		}
	}
	return nil
}

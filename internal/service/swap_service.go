// Package service exposes the four swaprelay entry points to the
// transport layer: snapshot queries, live liquidity streams, order status
// lookups, and swap submission.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/swaprelay/swaprelay/internal/domain"
	"github.com/swaprelay/swaprelay/internal/event"
	"github.com/swaprelay/swaprelay/internal/liquidity"
)

// SwapService orchestrates the cache, decoder, and per-caller sessions.
// It never writes to the cache itself; the process-wide listener is the
// single writer.
type SwapService struct {
	cache   *liquidity.Cache
	dup     domain.BusDuplicator
	decoder *event.Decoder
	logger  *slog.Logger
}

// NewSwapService creates the facade over the shared cache and bus.
func NewSwapService(
	cache *liquidity.Cache,
	dup domain.BusDuplicator,
	decoder *event.Decoder,
	logger *slog.Logger,
) *SwapService {
	return &SwapService{
		cache:   cache,
		dup:     dup,
		decoder: decoder,
		logger:  logger.With(slog.String("component", "service")),
	}
}

// Init returns the current snapshots for the requested pair keys, or
// every snapshot when no keys are given. It always succeeds; an empty
// result is a valid answer.
func (s *SwapService) Init(tokens []string) []domain.TradingPair {
	return s.cache.SnapshotFiltered(tokens)
}

// Liquidity opens a streaming session scoped to the given pair keys and
// blocks until it ends. The sink is bound to the caller's stream. Errors
// wrapping domain.ErrNoBus mean the session could never connect and the
// call must be terminated with an internal error; a nil return is a
// normal session end.
func (s *SwapService) Liquidity(ctx context.Context, tokens []string, sink liquidity.Sink) error {
	session := liquidity.NewSession(s.dup, s.decoder, tokens, sink, s.logger)
	s.logger.Info("liquidity stream opened",
		slog.String("session_id", session.ID()),
		slog.Int("tokens", len(tokens)),
	)
	defer s.logger.Info("liquidity stream closed",
		slog.String("session_id", session.ID()),
	)
	return session.Run(ctx)
}

// OrderStatus reports the lifecycle state of an order hash. The empty
// hash is INVALID, a hash in the pending set is PENDING_BATCHING, and
// anything else is the terminal NOT_FOUND. The pending set is never
// touched, only read.
func (s *SwapService) OrderStatus(txHash string) domain.TxStatus {
	if txHash == "" {
		return domain.TxStatusInvalid
	}
	if s.cache.HasOrder(txHash) {
		return domain.TxStatusPendingBatching
	}
	return domain.TxStatusNotFound
}

// Swap validates a submitted pair and accepts it for execution. The buy
// side must carry a strictly positive amount. Actual trade execution is
// handled by the settlement engine downstream; acceptance here only means
// the request was well formed.
func (s *SwapService) Swap(ctx context.Context, pair domain.TradingPair) error {
	if !pair.A.Valid(true) || !pair.B.Valid(false) {
		return fmt.Errorf("%w: missing valid arguments for swap pair", domain.ErrInvalidArgument)
	}

	s.logger.InfoContext(ctx, "swap accepted",
		slog.String("pool", pair.Key()),
	)
	return nil
}

package liquidity

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/swaprelay/swaprelay/internal/domain"
	"github.com/swaprelay/swaprelay/internal/event"
)

// SessionState tracks where a streaming session is in its lifecycle.
type SessionState int32

const (
	SessionCreated SessionState = iota
	SessionConnected
	SessionStreaming
	SessionClosed
)

// String returns the lowercase state name.
func (s SessionState) String() string {
	switch s {
	case SessionCreated:
		return "created"
	case SessionConnected:
		return "connected"
	case SessionStreaming:
		return "streaming"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sink receives the pairs a session delivers. It is bound to one caller's
// transport stream; a write error means the caller is gone.
type Sink interface {
	WritePair(pair domain.TradingPair) error
}

// Session is one live, filtered liquidity subscription. It owns a
// dedicated bus connection (duplicated from the shared client) so a slow
// or broken subscriber can never stall the shared listener or any other
// session. The only shared state it ever touches is its own sink.
type Session struct {
	id      string
	dup     domain.BusDuplicator
	decoder *event.Decoder
	filter  map[string]struct{}
	sink    Sink
	logger  *slog.Logger
	state   atomic.Int32
}

// NewSession creates a session scoped to the given pair keys. An empty
// filter delivers every successfully decoded pair.
func NewSession(
	dup domain.BusDuplicator,
	decoder *event.Decoder,
	tokens []string,
	sink Sink,
	logger *slog.Logger,
) *Session {
	filter := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			filter[t] = struct{}{}
		}
	}

	id := uuid.New().String()
	return &Session{
		id:      id,
		dup:     dup,
		decoder: decoder,
		filter:  filter,
		sink:    sink,
		logger: logger.With(
			slog.String("component", "session"),
			slog.String("session_id", id),
		),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) {
	s.state.Store(int32(st))
}

// Run drives the session through its lifecycle: acquire a dedicated bus
// connection, subscribe to the liquidity topic, and stream filtered pairs
// into the sink until the context ends, the sink fails, the bus drops, or
// the upstream sentinel arrives.
//
// Failure to acquire the connection is fatal for the call and returned as
// an error wrapping domain.ErrNoBus. Every other termination is a normal
// session end and returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.setState(SessionClosed)

	conn, err := s.dup.Duplicate(ctx)
	if err != nil {
		return fmt.Errorf("session %s: %w: %w", s.id, domain.ErrNoBus, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Warn("closing dedicated bus connection failed",
				slog.String("error", cerr.Error()),
			)
		}
	}()
	s.setState(SessionConnected)

	msgs, err := conn.Subscribe(ctx, s.decoder.Topics().Liquidity)
	if err != nil {
		return fmt.Errorf("session %s: %w: %w", s.id, domain.ErrNoBus, err)
	}
	s.setState(SessionStreaming)
	s.logger.Info("streaming", slog.Int("filter_size", len(s.filter)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-msgs:
			if !ok {
				// Dedicated connection dropped; normal session end.
				return nil
			}

			ev, err := s.decoder.DecodeLiquidity(payload)
			if err != nil {
				s.logger.Debug("dropping undecodable event",
					slog.String("error", err.Error()),
				)
				continue
			}
			if ev == nil {
				// End-of-data sentinel: close without writing.
				s.logger.Info("upstream signalled end of data")
				return nil
			}

			if !s.wants(ev.Pair) {
				continue
			}
			if err := s.sink.WritePair(ev.Pair); err != nil {
				s.logger.Info("sink closed", slog.String("error", err.Error()))
				return nil
			}
		}
	}
}

// wants applies the token filter: deliver everything when the filter is
// empty, otherwise only pairs whose key was requested.
func (s *Session) wants(pair domain.TradingPair) bool {
	if len(s.filter) == 0 {
		return true
	}
	_, ok := s.filter[pair.Key()]
	return ok
}

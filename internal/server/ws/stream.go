// Package ws serves the streaming endpoints over WebSocket: live
// liquidity deltas and order status. Each liquidity connection is backed
// by its own subscription session with a dedicated bus connection, so
// slow consumers only ever affect themselves.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swaprelay/swaprelay/internal/domain"
	"github.com/swaprelay/swaprelay/internal/liquidity"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 1024
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS middleware in front.
		return true
	},
}

// StreamService defines the streaming operations the WebSocket layer
// requires from the service layer.
type StreamService interface {
	Liquidity(ctx context.Context, tokens []string, sink liquidity.Sink) error
	OrderStatus(txHash string) domain.TxStatus
}

// Streamer serves the WebSocket streaming endpoints.
type Streamer struct {
	svc    StreamService
	logger *slog.Logger
}

// NewStreamer creates a Streamer over the given service.
func NewStreamer(svc StreamService, logger *slog.Logger) *Streamer {
	return &Streamer{
		svc:    svc,
		logger: logger.With(slog.String("component", "ws")),
	}
}

// HandleLiquidity upgrades the request and streams filtered pair updates
// until the session ends or the client goes away.
// GET /ws/liquidity?tokens=WETH:USDC,DAI:USDT
func (s *Streamer) HandleLiquidity(w http.ResponseWriter, r *http.Request) {
	tokens := splitTokens(r.URL.Query().Get("tokens"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sc := &streamConn{conn: conn}
	go sc.readLoop(cancel)
	go sc.pingLoop(ctx)

	err = s.svc.Liquidity(ctx, tokens, sc)
	switch {
	case errors.Is(err, domain.ErrNoBus):
		// The session could not connect; terminate the call as an
		// internal error.
		s.logger.Error("liquidity stream aborted", slog.String("error", err.Error()))
		sc.closeWith(websocket.CloseInternalServerErr, "no bus connection available")
	case err != nil:
		s.logger.Error("liquidity stream failed", slog.String("error", err.Error()))
		sc.closeWith(websocket.CloseInternalServerErr, "stream failed")
	default:
		sc.closeWith(websocket.CloseNormalClosure, "")
	}
}

// statusFrame is the single message shape of the order status stream.
type statusFrame struct {
	Status domain.TxStatus `json:"status"`
}

// HandleOrders upgrades the request, writes the order's current status,
// and closes. Every status the service reports today is terminal, so the
// stream always ends after one frame.
// GET /ws/orders?tx_hash=0x…
func (s *Streamer) HandleOrders(w http.ResponseWriter, r *http.Request) {
	txHash := strings.TrimSpace(r.URL.Query().Get("tx_hash"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sc := &streamConn{conn: conn}
	status := s.svc.OrderStatus(txHash)
	if err := sc.writeJSON(statusFrame{Status: status}); err != nil {
		return
	}
	sc.closeWith(websocket.CloseNormalClosure, "")
}

// streamConn wraps a WebSocket connection with a write lock so the
// session sink and the keepalive ticker never interleave frames.
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WritePair implements liquidity.Sink: one JSON pair document per frame.
func (c *streamConn) WritePair(pair domain.TradingPair) error {
	return c.writeJSON(pair)
}

func (c *streamConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// closeWith sends a close frame; the error is ignored since the peer may
// already be gone.
func (c *streamConn) closeWith(code int, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, msg))
}

// readLoop drains client frames so pongs are processed and cancels the
// stream when the client disconnects. Inbound data frames are ignored.
func (c *streamConn) readLoop(cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pingLoop sends keepalive pings until the stream context ends.
func (c *streamConn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// splitTokens parses the comma-separated pair-key filter.
func splitTokens(raw string) []string {
	if raw == "" {
		return nil
	}
	var tokens []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

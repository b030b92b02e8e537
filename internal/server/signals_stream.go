package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/quantroll/stratagem/internal/domain"
)

// writeTimeout bounds one frame delivery to a subscriber.
const writeTimeout = 5 * time.Second

// SignalHub streams every emitted StrategySignal to websocket subscribers.
// It implements domain.SignalSink; slow subscribers drop frames rather than
// block the selection path.
type SignalHub struct {
	log zerolog.Logger

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	ch chan domain.StrategySignal
}

// NewSignalHub creates the signal broadcast hub.
func NewSignalHub(log zerolog.Logger) *SignalHub {
	return &SignalHub{
		log:     log.With().Str("component", "signal-hub").Logger(),
		clients: make(map[*hubClient]struct{}),
	}
}

// Publish fans a signal out to all subscribers. Never blocks: full client
// buffers lose the frame.
func (h *SignalHub) Publish(signal domain.StrategySignal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.ch <- signal:
		default:
			h.log.Warn().Str("signal_id", signal.ID).Msg("Subscriber buffer full, dropping signal")
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *SignalHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every subscriber; used on shutdown.
func (h *SignalHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.ch)
	}
	h.clients = make(map[*hubClient]struct{})
}

// ServeHTTP upgrades the connection and streams signals until the client
// disconnects.
// GET /api/signals/stream
func (h *SignalHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS is enforced by the router middleware
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	client := &hubClient{ch: make(chan domain.StrategySignal, 16)}
	if !h.add(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.remove(client)

	h.log.Info().Msg("Signal stream subscriber connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		case signal, ok := <-client.ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, signal)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Signal stream write failed, dropping subscriber")
				return
			}
		}
	}
}

func (h *SignalHub) add(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *SignalHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

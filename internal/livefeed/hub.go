// Package livefeed implements itchyserv's optional live fan-out: a
// small WebSocket hub broadcasting decoded ITCH ticks to dashboard
// clients, grounded on adred-codev-ws_poc/ws/internal/shared's
// Client/broadcast architecture (connection.go, broadcast.go,
// pump_write.go), retargeted from generic JSON payloads at decoded
// ITCH events and trimmed of the teacher's rate-limiting/replay-buffer
// machinery, which is out of scope for this tool.
package livefeed

import (
	"bufio"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"
)

// sendBufferSize is the per-client outgoing buffer depth, small since
// this hub fans out a bounded-rate replay/validate stream rather than
// a production trading feed (cf. the teacher's 1024-slot buffer sized
// for a multi-channel broadcast workload).
const sendBufferSize = 256

// maxSendAttempts is how many consecutive full-buffer sends a client
// tolerates before the hub disconnects it, matching the teacher's
// 3-strike slow-client policy.
const maxSendAttempts = 3

// client is one connected WebSocket dashboard viewer.
type client struct {
	id           int64
	conn         net.Conn
	send         chan []byte
	sendAttempts int32
	closeOnce    sync.Once
}

// Hub fans decoded ITCH ticks out to every connected client.
type Hub struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[int64]*client
	nextID  int64

	BroadcastTotal  int64
	DroppedTotal    int64
	DisconnectTotal int64
}

// New builds an empty Hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{logger: logger, clients: make(map[int64]*client)}
}

// ServeHTTP upgrades an incoming request to a WebSocket connection and
// registers it with the hub, the Go counterpart of the teacher's
// handleWebSocket handler (trimmed of admission control, which
// itchyserv has no equivalent resource budget for).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.register(conn)
}

func (h *Hub) register(conn net.Conn) {
	h.mu.Lock()
	h.nextID++
	c := &client{id: h.nextID, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.clients[c.id] = c
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	closeClient(c)
}

// closeClient closes a client's connection and send channel exactly
// once, however many of writePump/readPump/Close race to trigger it.
func closeClient(c *client) {
	c.closeOnce.Do(func() {
		c.conn.Close()
		close(c.send)
	})
}

// readPump only watches for client-initiated close/errors; this hub
// is output-only, so any client frame is discarded.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := wsutil.ReadClientData(c.conn); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	writer := bufio.NewWriter(c.conn)
	defer h.unregister(c)

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := wsutil.WriteServerMessage(writer, ws.OpBinary, msg); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

// Broadcast sends payload (an encoded ITCH message) to every connected
// client, non-blocking: a client whose buffer is full is counted as a
// drop, and disconnected after maxSendAttempts consecutive drops.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.sendTo(c, payload)
	}
}

// sendTo delivers one payload to c, tolerating the race between a
// concurrent unregister closing c.send and this goroutine's snapshot
// of the client list going stale.
func (h *Hub) sendTo(c *client, payload []byte) {
	defer func() {
		if recover() != nil {
			// c.send was closed by a concurrent unregister; nothing
			// left to do, the client is already gone.
		}
	}()

	select {
	case c.send <- payload:
		atomic.StoreInt32(&c.sendAttempts, 0)
		atomic.AddInt64(&h.BroadcastTotal, 1)
	default:
		atomic.AddInt64(&h.DroppedTotal, 1)
		if atomic.AddInt32(&c.sendAttempts, 1) >= maxSendAttempts {
			atomic.AddInt64(&h.DisconnectTotal, 1)
			h.unregister(c)
		}
	}
}

// ClientCount reports the current number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[int64]*client)
	h.mu.Unlock()

	for _, c := range clients {
		closeClient(c)
	}
}

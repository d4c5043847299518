package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

const (
	maxClients   = 100
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second

	// EventReportPublished is sent after every persisted run
	EventReportPublished = "report_published"
)

// Event is one message pushed to websocket clients
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

// ReportSummary is the payload of a report_published event
type ReportSummary struct {
	CollectedAt time.Time `json:"collected_at"`
	Total       int       `json:"total_collected"`
	Passed      int       `json:"passed_filter"`
	Symbols     []string  `json:"passed_symbols"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans report events out to websocket clients
// ⭐ SSOT: 실시간 푸시는 이 Hub에서만
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
	logger     *logger.Logger
}

var _ contracts.ReportPublisher = (*Hub)(nil)

// NewHub creates a hub; call Run to start it
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 16),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: log.WithField("module", "hub"),
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues a report_published event. Never blocks the pipeline.
func (h *Hub) Publish(report *contracts.Report) {
	passed := report.Passed()
	symbols := make([]string, len(passed))
	for i, res := range passed {
		symbols[i] = res.Symbol
	}

	event := Event{
		Type: EventReportPublished,
		Data: ReportSummary{
			CollectedAt: report.Metadata.GeneratedAt,
			Total:       report.Metadata.TotalCount,
			Passed:      report.Metadata.PassedCount,
			Symbols:     symbols,
		},
		Time: time.Now().UTC(),
	}

	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast queue full, event dropped")
	}
}

// Run serves register, unregister and broadcast until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*client]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= maxClients {
				h.mu.Unlock()
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Server at capacity"))
				c.conn.Close()
				h.logger.Warnf("WebSocket client rejected: max clients reached (%d)", maxClients)
				continue
			}
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.WithField("clients", count).Debug("WebSocket client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.WithField("clients", count).Debug("WebSocket client disconnected")

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal event")
				continue
			}

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// 버퍼가 찬 클라이언트는 끊음
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ServeWS upgrades the request and attaches the client
// GET /ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= maxClients {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; clients never send commands
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Debug("WebSocket read error")
			}
			return
		}
	}
}

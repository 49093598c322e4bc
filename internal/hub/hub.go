package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/client"
)

// Hub maintains the set of live dashboard sessions
type Hub struct {
	// Registered clients
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	// Register requests from clients
	register chan *client.Client

	// Unregister requests from clients
	unregister chan *client.Client

	// Closed when Run returns
	done chan struct{}

	logger         *slog.Logger
	reportInterval time.Duration

	// Metrics
	totalConnections int64
	totalEvents      int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:        make(map[*client.Client]bool),
		register:       make(chan *client.Client),
		unregister:     make(chan *client.Client),
		done:           make(chan struct{}),
		logger:         logger.With("component", "hub"),
		reportInterval: 30 * time.Second,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	defer close(h.done)

	// Start metrics reporter
	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Register adds a client to the hub. After the hub has stopped the client is
// closed instead and Register returns false.
func (h *Hub) Register(client *client.Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		client.Close()
		return false
	}
}

// Unregister removes and closes a client. It never blocks once the hub has stopped.
func (h *Hub) Unregister(client *client.Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RecordEvent counts one handled session event
func (h *Hub) RecordEvent() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalEvents++
}

// registerClient adds a client to the active clients map
func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.incrementTotalConnections()

	h.logger.Info("client connected", "client_id", c.ID, "total", len(h.clients))
}

// unregisterClient removes a client from the active clients map
func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
		h.logger.Info("client disconnected", "client_id", c.ID, "total", len(h.clients))
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalEvents := h.totalEvents
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":    activeClients,
		"total_connections": totalConnections,
		"total_events":      totalEvents,
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes every client; their pumps see Done and exit
func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info("shutting down hub", "active_clients", len(h.clients))

	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

// reportMetrics periodically reports hub metrics
func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(h.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics := h.GetMetrics()
			h.logger.Info("hub metrics",
				"clients", metrics["active_clients"],
				"total_connections", metrics["total_connections"],
				"events", metrics["total_events"])
		}
	}
}

// incrementTotalConnections safely increments the total connections counter
func (h *Hub) incrementTotalConnections() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalConnections++
}

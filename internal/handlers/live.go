package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/binder"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/client"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/route"
)

// LiveHandler upgrades connections to live dashboard sessions
type LiveHandler struct {
	dash     *dashboard.Dashboard
	hub      *hub.Hub
	ctx      context.Context
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewLiveHandler creates a live handler. Sessions end when ctx is cancelled.
// Browsers may connect only from allowedOrigins or the serving host.
func NewLiveHandler(ctx context.Context, dash *dashboard.Dashboard, h *hub.Hub, allowedOrigins []string, logger *slog.Logger) *LiveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHandler{
		dash: dash,
		hub:  h,
		ctx:  ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		logger: logger.With("component", "live"),
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// HandleWebSocket starts a session at ?path= (escaped form, default "/") and
// sends every output once before reading events.
func (h *LiveHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = route.RootPath
	}

	session, initial, err := h.dash.NewSession(r.Context(), binder.Values{dashboard.SignalPath: path})
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to start session", err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	c := client.NewClient(clientID, conn, h.hub, session, h.logger)

	if !h.hub.Register(c) {
		h.logger.Warn("hub stopped, dropping live session", "client_id", clientID)
		conn.Close()
		return
	}
	c.SendUpdate(initial)

	// Start client pumps (use handler context, not request context)
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	h.logger.Info("live session started", "client_id", clientID, "path", path)
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/binder"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer size for outbound messages
	sendBufferSize = 64
)

// Session is the binder state a client drives.
type Session interface {
	Set(ctx context.Context, changes binder.Values) (binder.Update, error)
	Values() binder.Values
}

// Hub defines the interface for the session hub
type Hub interface {
	Unregister(client *Client)
	RecordEvent()
}

// Client represents a WebSocket client connection and its live session
type Client struct {
	ID      string
	conn    *websocket.Conn
	Send    chan models.ServerMessage // Exported for hub access
	hub     Hub
	session Session
	logger  *slog.Logger

	connectedAt      time.Time
	messagesSent     int64
	messagesReceived int64
	lastMessageAt    time.Time
	mu               sync.Mutex

	// done is closed once the client stops accepting messages. Send is never
	// closed, so a late TrySend from the read loop cannot panic.
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub Hub, session Session, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		ID:          id,
		conn:        conn,
		Send:        make(chan models.ServerMessage, sendBufferSize),
		hub:         hub,
		session:     session,
		logger:      logger.With("client_id", id),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// Close stops the client: TrySend starts refusing messages and WritePump sends
// a close frame and exits. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump reads client events and applies them to the session one at a time
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg models.ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Warn("unexpected close", "error", err)
				}
				return
			}

			c.updateReceived()
			c.HandleMessage(ctx, msg)
		}
	}
}

// WritePump pumps messages from the Send channel to the WebSocket connection
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.done:
			// Hub released the client
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn("write error", "error", err)
				return
			}

			c.updateSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend sends a message to the client (non-blocking)
// Returns true if sent, false if the client is closed or its buffer is full
func (c *Client) TrySend(msg models.ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.Send <- msg:
		return true
	default:
		// Buffer full - client is too slow
		return false
	}
}

// SendUpdate queues the outputs of one recomputation pass.
func (c *Client) SendUpdate(u binder.Update) bool {
	return c.TrySend(models.ServerMessage{
		Type:      models.MessageTypeOutputs,
		Payload:   OutputsPayload(u, c.session.Values()),
		Timestamp: time.Now(),
	})
}

// GetStats returns connection statistics
func (c *Client) GetStats() models.ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	bufferUtilization := float64(len(c.Send)) / float64(sendBufferSize) * 100.0

	return models.ConnectionStats{
		ClientID:          c.ID,
		ConnectedAt:       c.connectedAt,
		MessagesSent:      c.messagesSent,
		MessagesReceived:  c.messagesReceived,
		LastMessageAt:     c.lastMessageAt,
		BufferSize:        sendBufferSize,
		BufferUtilization: bufferUtilization,
	}
}

// HandleMessage processes one client event. Events that change signals reply
// with an outputs message; malformed events reply with an error message.
func (c *Client) HandleMessage(ctx context.Context, msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeSetInputs:
		var p models.SetInputsPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || len(p.Inputs) == 0 {
			c.sendError(models.ErrCodeInvalidMessage, "set_inputs needs a non-empty inputs object")
			return
		}
		changes := make(binder.Values, len(p.Inputs))
		for k, v := range p.Inputs {
			changes[binder.Signal(k)] = v
		}
		c.apply(ctx, changes)

	case models.MessageTypeNavigate:
		var p models.NavigatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Path == "" {
			c.sendError(models.ErrCodeInvalidMessage, "navigate needs a path")
			return
		}
		c.apply(ctx, binder.Values{dashboard.SignalPath: p.Path})

	case models.MessageTypeHeartbeat:
		c.sendHeartbeat()

	default:
		c.sendError(models.ErrCodeUnknownType, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (c *Client) apply(ctx context.Context, changes binder.Values) {
	u, err := c.session.Set(ctx, changes)
	if errors.Is(err, binder.ErrUnknownSignal) {
		c.sendError(models.ErrCodeUnknownSignal, err.Error())
		return
	}
	if err != nil {
		c.sendError(models.ErrCodeInvalidMessage, err.Error())
		return
	}

	c.hub.RecordEvent()
	c.logger.Debug("session updated",
		"outputs", len(u.Outputs), "skipped", len(u.Skipped), "errors", len(u.Errors))

	if !c.SendUpdate(u) {
		c.logger.Warn("send buffer full, dropping update")
	}
}

// OutputsPayload converts a binder update to its wire form.
func OutputsPayload(u binder.Update, values binder.Values) models.OutputsPayload {
	p := models.OutputsPayload{
		Outputs: make(map[string]interface{}, len(u.Outputs)),
		Inputs:  make(map[string]string, len(values)),
	}
	for o, v := range u.Outputs {
		p.Outputs[string(o)] = v
	}
	for _, o := range u.Skipped {
		p.Skipped = append(p.Skipped, string(o))
	}
	if len(u.Errors) > 0 {
		p.Errors = make(map[string]string, len(u.Errors))
		for o, err := range u.Errors {
			p.Errors[string(o)] = err.Error()
		}
	}
	for s, v := range values {
		p.Inputs[string(s)] = v
	}
	return p
}

// sendHeartbeat sends a heartbeat response
func (c *Client) sendHeartbeat() {
	stats := c.GetStats()
	c.TrySend(models.ServerMessage{
		Type:      models.MessageTypeHeartbeat,
		Payload:   stats,
		Timestamp: time.Now(),
	})
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.TrySend(models.ServerMessage{
		Type: models.MessageTypeError,
		Payload: models.ErrorMessage{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now(),
	})
}

// updateSent increments the sent message counter
func (c *Client) updateSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesSent++
	c.lastMessageAt = time.Now()
}

// updateReceived increments the received message counter
func (c *Client) updateReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesReceived++
	c.lastMessageAt = time.Now()
}

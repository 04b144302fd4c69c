// Package events pushes interview lifecycle events to connected clients
// over WebSocket.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Event types pushed over the interview stream.
const (
	TypeQuestion   = "question"
	TypeExpression = "expression"
	TypeState      = "state"
	TypeCompleted  = "completed"
)

// backlogSize bounds how many events are kept per session for clients that
// connect late, so one session's burst cannot evict another's.
const backlogSize = 100

// Event is one message pushed to interview clients.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Hub fans interview events out to the WebSocket connections subscribed to
// each session and buffers a bounded backlog for late joiners.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]map[*websocket.Conn]struct{}
	backlog map[string][]Event
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:   make(map[string]map[*websocket.Conn]struct{}),
		backlog: make(map[string][]Event),
		logger:  logger,
	}
}

// Register subscribes a connection to a session's events and replays the
// buffered backlog to it.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[sessionID] == nil {
		h.conns[sessionID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[sessionID][conn] = struct{}{}
	replay := make([]Event, len(h.backlog[sessionID]))
	copy(replay, h.backlog[sessionID])
	h.mu.Unlock()

	for _, ev := range replay {
		h.send(sessionID, conn, ev)
	}
}

// Unregister removes a connection.
func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[sessionID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, sessionID)
		}
	}
}

// Publish buffers an event and pushes it to every subscribed connection.
func (h *Hub) Publish(sessionID, eventType string, payload any) {
	ev := Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	h.mu.Lock()
	h.backlog[sessionID] = append(h.backlog[sessionID], ev)
	if n := len(h.backlog[sessionID]); n > backlogSize {
		h.backlog[sessionID] = h.backlog[sessionID][n-backlogSize:]
	}
	targets := make([]*websocket.Conn, 0, len(h.conns[sessionID]))
	for conn := range h.conns[sessionID] {
		targets = append(targets, conn)
	}
	h.mu.Unlock()

	for _, conn := range targets {
		h.send(sessionID, conn, ev)
	}
}

// CloseSession drops the session's backlog and closes its connections.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	conns := h.conns[sessionID]
	delete(h.conns, sessionID)
	delete(h.backlog, sessionID)
	h.mu.Unlock()

	for conn := range conns {
		if err := conn.Close(websocket.StatusNormalClosure, "interview ended"); err != nil {
			h.logger.Debug("failed to close event connection", "session_id", sessionID, "error", err)
		}
	}
}

// Backlog returns a copy of the buffered events for a session.
func (h *Hub) Backlog(sessionID string) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, len(h.backlog[sessionID]))
	copy(out, h.backlog[sessionID])
	return out
}

func (h *Hub) send(sessionID string, conn *websocket.Conn, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal event", "type", ev.Type, "error", err)
		return
	}
	if err := conn.Write(context.Background(), websocket.MessageText, data); err != nil {
		// Expected when clients disconnect abruptly.
		h.logger.Debug("event write failed", "session_id", sessionID, "error", err)
	}
}

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/scandocs/docmatch/internal/session"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// SessionEvent is a workflow state change pushed over WebSocket.
type SessionEvent struct {
	Type    string           `json:"type"`
	Session session.Snapshot `json:"session"`
}

// sessionEventsHandler streams workflow state changes for the client's
// session. The current snapshot is sent on connect, then one event per state
// change (begin, input accepted, processing, result, reset) until the client
// disconnects.
func (s *Server) sessionEventsHandler(w http.ResponseWriter, r *http.Request) {
	// Resolve the session before the upgrade; headers cannot be set afterwards.
	id := s.sessionID(w, r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	e := s.sessions.get(id)
	events := e.watch()
	defer e.unwatch(events)

	e.mu.Lock()
	snap := e.sess.Snapshot()
	e.mu.Unlock()
	if !s.sendSessionEvent(conn, SessionEvent{Type: "snapshot", Session: snap}) {
		return
	}

	// Drain client messages so pings/pongs and close frames are handled.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Error("WebSocket error", "error", err)
				}
				return
			}
			websocketMessagesTotal.WithLabelValues("received").Inc()
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case snap := <-events:
			if !s.sendSessionEvent(conn, SessionEvent{Type: "update", Session: snap}) {
				return
			}
		}
	}
}

// sendSessionEvent writes one event frame; returns false when the connection
// is unusable.
func (s *Server) sendSessionEvent(conn *websocket.Conn, event SessionEvent) bool {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal WebSocket event", "error", err)
		return false
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return false
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return true
}

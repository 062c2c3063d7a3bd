package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
)

const (
	sessionReadTimeout = 60 * time.Second
	sessionPingPeriod  = 30 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Session message types.
const (
	msgInit      = "init"
	msgConfirm   = "confirm"
	msgState     = "state"
	msgConfirmed = "confirmed"
	msgError     = "error"
)

// SessionRequest is a client message on the editing session. Type is one of
// init, begin, move, end, undo, reset or confirm.
type SessionRequest struct {
	Type          string           `json:"type"`
	Box           *skewbox.SkewBox `json:"box,omitempty"`
	DisplayHeight float64          `json:"display_height,omitempty"`
	Tolerance     float64          `json:"tolerance,omitempty"`
	X             float64          `json:"x"`
	Y             float64          `json:"y"`
}

// SessionResponse is a server message on the editing session.
type SessionResponse struct {
	Type    string           `json:"type"`
	State   string           `json:"state,omitempty"`
	Box     *skewbox.SkewBox `json:"box,omitempty"`
	Handles *skewbox.SkewBox `json:"handles,omitempty"`
	Active  string           `json:"active,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// editSession is the per-connection editor. A connection drives at most one
// editor at a time.
type editSession struct {
	editor    *skewbox.Editor
	tolerance float64
}

// sessionHandler upgrades the request and runs an editing session.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketSessions.Inc()
	defer websocketSessions.Dec()

	slog.Info("Editing session established", "remote_addr", r.RemoteAddr)
	s.runSession(conn)
}

func (s *Server) runSession(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(sessionPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	sess := &editSession{tolerance: s.tolerance}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))

		if messageType == websocket.TextMessage {
			s.handleSessionMessage(conn, sess, data)
		}
	}
}

// handleSessionMessage applies one client message and writes the reply.
func (s *Server) handleSessionMessage(conn WebSocketConnWriter, sess *editSession, data []byte) {
	var req SessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendSessionError(conn, fmt.Errorf("failed to parse request: %w", err))
		return
	}

	resp, err := sess.apply(req)
	if err != nil {
		s.sendSessionError(conn, err)
		return
	}
	s.sendSessionResponse(conn, resp)
}

func (sess *editSession) apply(req SessionRequest) (SessionResponse, error) {
	if req.Type == msgInit {
		if req.Box == nil {
			return SessionResponse{}, errors.New("init requires a box")
		}
		if req.DisplayHeight <= 0 {
			return SessionResponse{}, fmt.Errorf("init requires a positive display_height, got %g", req.DisplayHeight)
		}
		tol := req.Tolerance
		if tol <= 0 {
			tol = sess.tolerance
		}
		sess.editor = skewbox.NewEditor(*req.Box, req.DisplayHeight, tol)
		return sess.state(), nil
	}

	if sess.editor == nil {
		return SessionResponse{}, errors.New("session not initialised")
	}

	if req.Type == msgConfirm {
		box := sess.editor.Confirm()
		sess.editor = nil
		return SessionResponse{Type: msgConfirmed, Box: &box}, nil
	}

	ev := skewbox.Event{Phase: skewbox.Phase(req.Type), X: req.X, Y: req.Y}
	if err := sess.editor.Apply(ev); err != nil {
		return SessionResponse{}, err
	}
	return sess.state(), nil
}

func (sess *editSession) state() SessionResponse {
	box := sess.editor.Box()
	handles := sess.editor.Handles()
	resp := SessionResponse{
		Type:    msgState,
		State:   sess.editor.State().String(),
		Box:     &box,
		Handles: &handles,
	}
	if active := sess.editor.Active(); active != skewbox.NoCorner {
		resp.Active = active.String()
	}
	return resp
}

// sendSessionResponse sends a response message over WebSocket.
func (s *Server) sendSessionResponse(conn WebSocketConnWriter, response SessionResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendSessionError sends an error message over WebSocket.
func (s *Server) sendSessionError(conn WebSocketConnWriter, err error) {
	s.sendSessionResponse(conn, SessionResponse{Type: msgError, Error: err.Error()})
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// mockWebSocketConn records written messages.
type mockWebSocketConn struct {
	sentMessages [][]byte
}

func (m *mockWebSocketConn) WriteMessage(messageType int, data []byte) error {
	m.sentMessages = append(m.sentMessages, data)
	return nil
}

func (m *mockWebSocketConn) last(t *testing.T) SessionResponse {
	t.Helper()
	require.NotEmpty(t, m.sentMessages)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(m.sentMessages[len(m.sentMessages)-1], &resp))
	return resp
}

// 400x300 image shown on a 150 unit high display.
func sessionStart() skewbox.SkewBox { return skewbox.Default(400, 300) }

func initMessage(t *testing.T) []byte {
	t.Helper()
	box := sessionStart()
	data, err := json.Marshal(SessionRequest{Type: "init", Box: &box, DisplayHeight: 150})
	require.NoError(t, err)
	return data
}

func TestHandleSessionMessage_Flow(t *testing.T) {
	server := newTestServer(t, nil)
	conn := &mockWebSocketConn{}
	sess := &editSession{tolerance: server.tolerance}

	server.handleSessionMessage(conn, sess, initMessage(t))
	resp := conn.last(t)
	assert.Equal(t, "state", resp.Type)
	assert.Equal(t, "unedited", resp.State)
	assert.Equal(t, sessionStart(), *resp.Box)
	assert.Equal(t, utils.Pt(200, 150), resp.Handles.TopRight)

	// Grab the top-right handle and drag it.
	server.handleSessionMessage(conn, sess, []byte(`{"type":"begin","x":195,"y":145}`))
	assert.Equal(t, "top_right", conn.last(t).Active)

	server.handleSessionMessage(conn, sess, []byte(`{"type":"move","x":180,"y":140}`))
	resp = conn.last(t)
	assert.Equal(t, utils.Pt(180, 140), resp.Handles.TopRight)
	assert.Equal(t, "unedited", resp.State)

	server.handleSessionMessage(conn, sess, []byte(`{"type":"end","x":180,"y":140}`))
	resp = conn.last(t)
	assert.Equal(t, "edited", resp.State)
	assert.Empty(t, resp.Active)
	assert.Equal(t, utils.Pt(360, 20), resp.Box.TopRight)
	assert.Equal(t, sessionStart().TopLeft, resp.Box.TopLeft)

	server.handleSessionMessage(conn, sess, []byte(`{"type":"confirm"}`))
	resp = conn.last(t)
	assert.Equal(t, "confirmed", resp.Type)
	assert.Equal(t, utils.Pt(360, 20), resp.Box.TopRight)

	// The session is over until the next init.
	server.handleSessionMessage(conn, sess, []byte(`{"type":"begin","x":0,"y":0}`))
	resp = conn.last(t)
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Error, "not initialised")
}

func TestHandleSessionMessage_UndoReset(t *testing.T) {
	server := newTestServer(t, nil)
	conn := &mockWebSocketConn{}
	sess := &editSession{tolerance: 50}
	server.handleSessionMessage(conn, sess, initMessage(t))

	drag := func(fromX, fromY, toX, toY string) {
		server.handleSessionMessage(conn, sess, []byte(`{"type":"begin","x":`+fromX+`,"y":`+fromY+`}`))
		server.handleSessionMessage(conn, sess, []byte(`{"type":"end","x":`+toX+`,"y":`+toY+`}`))
	}
	drag("0", "150", "10", "140")
	drag("200", "25", "190", "35")
	resp := conn.last(t)
	assert.Equal(t, utils.Pt(20, 20), resp.Box.TopLeft)
	assert.Equal(t, utils.Pt(380, 230), resp.Box.BottomRight)

	server.handleSessionMessage(conn, sess, []byte(`{"type":"undo"}`))
	resp = conn.last(t)
	assert.Equal(t, "edited", resp.State)
	assert.Equal(t, sessionStart().BottomRight, resp.Box.BottomRight)
	assert.Equal(t, utils.Pt(20, 20), resp.Box.TopLeft)

	server.handleSessionMessage(conn, sess, []byte(`{"type":"reset"}`))
	resp = conn.last(t)
	assert.Equal(t, "unedited", resp.State)
	assert.Equal(t, sessionStart(), *resp.Box)
}

func TestHandleSessionMessage_Errors(t *testing.T) {
	server := newTestServer(t, nil)

	tests := []struct {
		name string
		msgs []string
		want string
	}{
		{"bad json", []string{`{`}, "failed to parse"},
		{"event before init", []string{`{"type":"move","x":1,"y":1}`}, "not initialised"},
		{"init without box", []string{`{"type":"init","display_height":10}`}, "requires a box"},
		{"init without height", []string{`{"type":"init","box":{}}`}, "display_height"},
		{"unknown type", []string{"", `{"type":"rotate"}`}, "unknown event phase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockWebSocketConn{}
			sess := &editSession{tolerance: 50}
			for _, m := range tt.msgs {
				data := []byte(m)
				if m == "" {
					data = initMessage(t)
				}
				server.handleSessionMessage(conn, sess, data)
			}
			resp := conn.last(t)
			assert.Equal(t, "error", resp.Type)
			assert.Contains(t, resp.Error, tt.want)
		})
	}
}

func TestHandleSessionMessage_ToleranceOverride(t *testing.T) {
	server := newTestServer(t, nil)
	conn := &mockWebSocketConn{}
	sess := &editSession{tolerance: 50}

	box := sessionStart()
	data, err := json.Marshal(SessionRequest{Type: "init", Box: &box, DisplayHeight: 150, Tolerance: 5})
	require.NoError(t, err)
	server.handleSessionMessage(conn, sess, data)

	// 10 units away misses with a tolerance of 5.
	server.handleSessionMessage(conn, sess, []byte(`{"type":"begin","x":10,"y":150}`))
	assert.Empty(t, conn.last(t).Active)
}

func TestSessionHandler_WebSocket(t *testing.T) {
	server := newTestServer(t, nil)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/session"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	send := func(msg []byte) SessionResponse {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
		var resp SessionResponse
		require.NoError(t, conn.ReadJSON(&resp))
		return resp
	}

	resp := send(initMessage(t))
	assert.Equal(t, "state", resp.Type)

	resp = send([]byte(`{"type":"begin","x":0,"y":25}`))
	assert.Equal(t, "bottom_left", resp.Active)

	resp = send([]byte(`{"type":"end","x":5,"y":30}`))
	assert.Equal(t, utils.Pt(10, 240), resp.Box.BottomLeft)

	resp = send([]byte(`{"type":"confirm"}`))
	assert.Equal(t, "confirmed", resp.Type)
	assert.Equal(t, utils.Pt(10, 240), resp.Box.BottomLeft)
	assert.Equal(t, sessionStart().TopLeft, resp.Box.TopLeft)
}

package support

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

func (testCtx *TestContext) iOpenAnEditingSession() error {
	url, err := testCtx.serverURL("/session")
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	testCtx.SessionConn = conn
	return nil
}

// iSend writes one JSON message and stores the reply.
func (testCtx *TestContext) iSend(message string) error {
	if testCtx.SessionConn == nil {
		return errors.New("no editing session")
	}
	if err := testCtx.SessionConn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return fmt.Errorf("failed to send %s: %w", message, err)
	}
	_ = testCtx.SessionConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, reply, err := testCtx.SessionConn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read reply: %w", err)
	}
	testCtx.LastSession = reply
	if state, err := jsonField(reply, "state"); err == nil {
		testCtx.SessionTrail = append(testCtx.SessionTrail, state)
	}
	return nil
}

func (testCtx *TestContext) iSendTheSessionMessage(doc *godog.DocString) error {
	return testCtx.iSend(strings.TrimSpace(doc.Content))
}

// iSendTheSessionMessages sends each line of a docstring as its own message.
func (testCtx *TestContext) iSendTheSessionMessages(doc *godog.DocString) error {
	for _, line := range strings.Split(doc.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := testCtx.iSend(line); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) theSessionReplyFieldShouldBe(path, want string) error {
	return expectField(testCtx.LastSession, path, want)
}

func (testCtx *TestContext) theSessionStatesShouldBe(want string) error {
	got := strings.Join(testCtx.SessionTrail, ", ")
	if got != want {
		return fmt.Errorf("session states were %q, expected %q", got, want)
	}
	return nil
}

// RegisterSessionSteps registers WebSocket editing session steps.
func (testCtx *TestContext) RegisterSessionSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I open an editing session$`, testCtx.iOpenAnEditingSession)
	sc.Step(`^I send the session message:$`, testCtx.iSendTheSessionMessage)
	sc.Step(`^I send the session messages:$`, testCtx.iSendTheSessionMessages)
	sc.Step(`^the session reply field "([^"]*)" should be "([^"]*)"$`, testCtx.theSessionReplyFieldShouldBe)
	sc.Step(`^the session states should be "([^"]*)"$`, testCtx.theSessionStatesShouldBe)
}

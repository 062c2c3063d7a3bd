package support

import (
	"fmt"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand string
	LastOutput  string
	LastStderr  string
	LastError   error

	// Scenario workspace; every relative fixture path is created here.
	TempDir string

	// HTTP state
	HTTPTestServer     *HTTPTestServerWrapper
	LastHTTPStatusCode int
	LastHTTPBody       []byte
	LastHTTPHeaders    map[string]string

	// Editing session state
	SessionConn  *websocket.Conn
	LastSession  []byte
	SessionTrail []string
}

// NewTestContext creates a context with a fresh temporary workspace.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "puzzlebox-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{TempDir: tempDir, LastHTTPHeaders: map[string]string{}}, nil
}

// Cleanup stops servers, closes sessions and removes the workspace.
func (testCtx *TestContext) Cleanup() error {
	var errs []error
	if testCtx.SessionConn != nil {
		if err := testCtx.SessionConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session: %w", err))
		}
		testCtx.SessionConn = nil
	}
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Close()
		testCtx.HTTPTestServer = nil
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// substitute replaces {dir} with the scenario workspace.
func (testCtx *TestContext) substitute(s string) string {
	return strings.ReplaceAll(s, "{dir}", testCtx.TempDir)
}

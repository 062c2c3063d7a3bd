package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServeCommand_InvalidFlags(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"port too large", []string{"serve", "--port", "70000"}, "invalid port number"},
		{"zero upload", []string{"serve", "--max-upload-size", "0"}, "invalid max upload size"},
		{"missing model", []string{"serve", "--port", "18080", "--detect", "--model-path", "/nonexistent/corners.onnx"}, "failed to initialize server"},
		{"extra args", []string{"serve", "now"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestServeCommand_ServesUntilCancelled(t *testing.T) {
	isolate(t)
	port := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := NewRootCmd()
	root.SetArgs([]string{"serve", "--host", "127.0.0.1", "--port", strconv.Itoa(port), "--shutdown-timeout", "2"})
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // test probe
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

package batch

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsoleProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgressCallback(&buf, "lids ").WithUpdateInterval(0)

	cb.OnStart(4)
	cb.OnProgress(2, 4)
	cb.OnError("bad.png", errors.New("decode failed"))
	cb.OnProgress(4, 4)
	cb.OnComplete()

	out := buf.String()
	assert.Contains(t, out, "lids 0/4\n")
	assert.Contains(t, out, "[###############...............] 2/4")
	assert.Contains(t, out, "lids bad.png: decode failed\n")
	assert.Contains(t, out, "[##############################] 4/4")
	assert.Contains(t, out, "lids Completed in")
}

func TestConsoleProgressCallback_Throttled(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgressCallback(&buf, "").WithUpdateInterval(time.Hour)

	cb.OnStart(10)
	cb.OnProgress(1, 10)
	cb.OnProgress(2, 10)
	cb.OnProgress(10, 10)

	out := buf.String()
	assert.Contains(t, out, " 1/10")
	assert.NotContains(t, out, " 2/10")
	// The final update is always drawn.
	assert.Contains(t, out, " 10/10")
}

func TestNoOpProgressCallback(t *testing.T) {
	var cb ProgressCallback = NoOpProgressCallback{}
	assert.NotPanics(t, func() {
		cb.OnStart(1)
		cb.OnProgress(1, 1)
		cb.OnError("x", errors.New("y"))
		cb.OnComplete()
	})
}

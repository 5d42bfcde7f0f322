package runner_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/runner"
)

func TestLogBuffer_KeepsMostRecent(t *testing.T) {
	t.Parallel()

	buf := runner.NewLogBuffer(3)
	for i := 1; i <= 5; i++ {
		buf.Add(runner.LogEntry{Message: fmt.Sprintf("entry %d", i)})
	}

	entries := buf.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 3", entries[0].Message)
	assert.Equal(t, "entry 5", entries[2].Message)
	assert.Equal(t, 2, buf.Dropped())
}

func TestLogBuffer_PartiallyFilled(t *testing.T) {
	t.Parallel()

	buf := runner.NewLogBuffer(10)
	buf.Add(runner.LogEntry{Message: "only"})

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "only", entries[0].Message)
	assert.Equal(t, 0, buf.Dropped())
}

func TestCaptureHandler_CapturesWhileActive(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	next := slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo})
	handler := runner.NewCaptureHandler(next, slog.LevelDebug)
	logger := slog.New(handler).With(slog.Int("worker", 1))

	logger.Info("before capture")

	buf := runner.NewLogBuffer(10)
	stop := handler.Capture(buf)
	logger.Debug("navigating", slog.String("url", "https://www.demoblaze.com"))
	logger.WithGroup("dialog").Info("Dialog received", slog.String("message", "Product added."))
	stop()

	logger.Info("after capture")

	entries := buf.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "navigating", entries[0].Message)
	assert.Equal(t, "worker=1 url=https://www.demoblaze.com", entries[0].Attrs)
	assert.Equal(t, `worker=1 dialog.message="Product added."`, entries[1].Attrs)

	// Debug is captured but not forwarded to the info level handler
	assert.NotContains(t, out.String(), "navigating")
	assert.Contains(t, out.String(), "before capture")
	assert.Contains(t, out.String(), "Dialog received")
	assert.Contains(t, out.String(), "after capture")
}

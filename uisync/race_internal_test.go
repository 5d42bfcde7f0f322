package uisync

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleBoth(t *testing.T) {
	t.Parallel()

	observed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("dialog first wins", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		evt := DialogEvent{Message: "Wrong password.", ReceivedAt: observed.Add(-time.Millisecond)}

		outcome := settleBoth(logger, observed, evt)

		assert.Equal(t, DialogWon, outcome.Kind)
		assert.Equal(t, "Wrong password.", outcome.Dialog.Message)
		assert.Nil(t, outcome.LateDialog)
		assert.Empty(t, buf.String())
	})

	t.Run("late dialog is reported", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		evt := DialogEvent{Message: "Product added.", Resolution: Accept, ReceivedAt: observed.Add(20 * time.Millisecond)}

		outcome := settleBoth(logger, observed, evt)

		assert.Equal(t, ElementWon, outcome.Kind)
		assert.Equal(t, observed, outcome.SettledAt)
		require.NotNil(t, outcome.LateDialog)
		assert.Equal(t, "Product added.", outcome.LateDialog.Message)
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "Product added.")
	})
}

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "test", LevelWarn)

	logger.Debug("dropped %d", 1)
	logger.Info("dropped too")
	logger.Warn("kept %s", "warning")
	logger.Error("kept error")

	out := buf.String()
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, "[WARN] [test] kept warning")
	require.Contains(t, out, "[ERROR] [test] kept error")
}

func TestOrNopReturnsNopForNil(t *testing.T) {
	require.NotNil(t, OrNop(nil))

	var typed *writerLogger
	require.NotPanics(t, func() {
		OrNop(typed).Info("should not be delivered")
	})
}

func TestMultiFansOutAndFlattens(t *testing.T) {
	var a, b bytes.Buffer
	inner := Multi(New(&a, "a", LevelDebug), nil)
	logger := Multi(inner, New(&b, "b", LevelDebug))

	logger.Info("hello")

	require.True(t, strings.Contains(a.String(), "hello"))
	require.True(t, strings.Contains(b.String(), "hello"))
}

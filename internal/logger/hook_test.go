package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newHookedLogger(writers []io.Writer) (*logrus.Logger, *AsyncHook) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	hook := NewAsyncHookWithWriters(writers, 16)
	log.AddHook(hook)
	return log, hook
}

func TestAsyncHook_PreservesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	log, hook := newHookedLogger([]io.Writer{&buf})

	log.WithField("view", "keyword_stats").Info("Incremental update hoàn tất")
	log.Warn("buffer gần đầy")

	// Close chờ goroutine ghi hết buffer, sau đó đọc an toàn
	hook.Close()

	out := buf.String()
	require.Contains(t, out, "level=info", "level của entry phải giữ nguyên qua hook")
	require.Contains(t, out, "Incremental update hoàn tất", "message của entry phải giữ nguyên qua hook")
	require.Contains(t, out, "view=keyword_stats")
	require.Contains(t, out, "level=warning")
	require.NotContains(t, out, "level=panic")
}

func TestAsyncHook_WritesToAllWriters(t *testing.T) {
	var first, second bytes.Buffer
	log, hook := newHookedLogger([]io.Writer{&first, &second})

	log.Info("ghi ra nhiều writer")
	hook.Close()

	require.Contains(t, first.String(), "ghi ra nhiều writer")
	require.Equal(t, first.String(), second.String())
}

func TestAsyncHook_FireAfterCloseIsNoop(t *testing.T) {
	var buf bytes.Buffer
	log, hook := newHookedLogger([]io.Writer{&buf})
	hook.Close()

	log.Info("sau khi đóng")
	require.NotContains(t, buf.String(), "sau khi đóng")
}

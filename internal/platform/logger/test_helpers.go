package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogBuffer captures handler output for assertions. Handlers get driven
// from multiple goroutines in tracker tests (pollers log concurrently), so
// access is serialized.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// GetTestLogger returns a debug-level JSON logger together with the buffer
// capturing its output.
func GetTestLogger(t *testing.T) (*slog.Logger, *LogBuffer) {
	t.Helper()

	buf := &LogBuffer{}
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), buf
}

// AssertLogContains fails t when the captured output does not contain
// content anywhere.
func AssertLogContains(t *testing.T, buf *LogBuffer, content string) {
	t.Helper()

	logs := buf.String()
	if !strings.Contains(logs, content) {
		t.Errorf("log output missing %q\ncaptured:\n%s", content, logs)
	}
}

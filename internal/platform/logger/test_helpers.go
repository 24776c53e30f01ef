package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer is a goroutine-safe io.Writer that captures JSON log lines.
type TestLogBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every captured line.
func (b *TestLogBuffer) Entries() ([]map[string]any, error) {
	var out []map[string]any
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// NewTestLogger returns a debug-level JSON logger writing into a fresh buffer.
func NewTestLogger(t *testing.T) (*slog.Logger, *TestLogBuffer) {
	t.Helper()
	buf := &TestLogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// AssertLogContains fails the test when the captured output lacks content.
func AssertLogContains(t *testing.T, buf *TestLogBuffer, content string) {
	t.Helper()
	if logs := buf.String(); !strings.Contains(logs, content) {
		t.Errorf("expected log to contain %q.\nLogs:\n%s", content, logs)
	}
}

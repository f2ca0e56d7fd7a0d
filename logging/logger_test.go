package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*CrossTalkLogger)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferLogger(level LogLevel) (*CrossTalkLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = &buf
	cfg.AddSource = false
	return NewLogger(cfg), &buf
}

func lines(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err == nil {
			out = append(out, entry)
		}
	}
	return out
}

func TestCrossTalkLogger_LevelGating(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept too")

	entries := lines(buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0]["msg"])
}

func TestCrossTalkLogger_ContextualAttrs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.WithComponent("bus").WithAgent("npc-1").WithSession("s1").WithContext("tick", 7).Info("hello")

	entries := lines(buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "bus", entries[0]["component"])
	assert.Equal(t, "npc-1", entries[0]["agent_id"])
	assert.Equal(t, "s1", entries[0]["session_id"])
	assert.Equal(t, float64(7), entries[0]["tick"])

	// With* methods clone; the receiver is untouched.
	l.Info("plain")
	entries = lines(buf)
	require.Len(t, entries, 2)
	_, hasComponent := entries[1]["component"]
	assert.False(t, hasComponent)
}

func TestCrossTalkLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.LogDelivery("npc-1", "text", time.Millisecond, nil)
	l.LogDelivery("npc-1", "text", time.Millisecond, fmt.Errorf("handler broke"))
	l.LogRefresh(true, 2*time.Millisecond, nil)
	l.LogProviderCall("gpt-4o-mini", 5*time.Millisecond, false, fmt.Errorf("timeout"))
	l.ErrorWithStack(fmt.Errorf("boom"), "something failed")

	entries := lines(buf)
	require.Len(t, entries, 5)
	assert.Equal(t, "Message delivered", entries[0]["msg"])
	assert.Equal(t, "Message handler failed", entries[1]["msg"])
	assert.Equal(t, "handler broke", entries[1]["error"])
	assert.Equal(t, true, entries[2]["significant"])
	assert.Equal(t, "Provider call failed", entries[3]["msg"])
	assert.NotEmpty(t, entries[4]["stack_trace"])
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("verbose"), "unknown names fall back to info")
}

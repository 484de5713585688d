package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestLogger records log entries in memory for assertions in unit tests
//
// Usage:
//
//	tl := logger.NewTestLogger()
//	engine := admission.NewEngine(catalog, store, cfg, tl, nil, nil)
//	...
//	assert.True(t, tl.HasLog("WARN", "counter store unavailable"))
type TestLogger struct {
	entries []TestEntry
	mu      sync.RWMutex
}

// TestEntry one recorded log line
type TestEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates an in-memory test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{entries: make([]TestEntry, 0)}
}

func (t *TestLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record("DEBUG", msg, fields)
}

func (t *TestLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record("INFO", msg, fields)
}

func (t *TestLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record("WARN", msg, fields)
}

func (t *TestLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record("ERROR", msg, fields)
}

// HasLog reports whether an entry at level contains substr in its message
func (t *TestLogger) HasLog(level, substr string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.entries {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Entries returns a copy of all recorded entries
func (t *TestLogger) Entries() []TestEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TestEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Count returns the number of entries at the given level
func (t *TestLogger) Count(level string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Reset clears all recorded entries
func (t *TestLogger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = t.entries[:0]
}

func (t *TestLogger) record(level, msg string, fields []zap.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, TestEntry{
		Level:   level,
		Message: msg,
		Fields:  enc.Fields,
	})
}

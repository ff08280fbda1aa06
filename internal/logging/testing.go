// pattern: Imperative Shell

package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogManager records log entries in memory for assertions.
type TestLogManager struct {
	baseZap *zap.Logger
	logs    *observer.ObservedLogs
	loggers map[string]*ScopedLogger
	mu      sync.Mutex
}

// NewTestLogManager creates a LoggerProvider for tests that records every
// entry at debug level and above.
func NewTestLogManager() *TestLogManager {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogManager{
		baseZap: zap.New(core),
		logs:    logs,
		loggers: make(map[string]*ScopedLogger),
	}
}

// For returns a scoped logger for the given scope name.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if logger, ok := m.loggers[scope]; ok {
		return logger
	}
	logger := newScopedLogger(m.baseZap.Named(scope), zapcore.DebugLevel, scope)
	m.loggers[scope] = logger
	return logger
}

// Messages returns the recorded messages for a scope, oldest first.
func (m *TestLogManager) Messages(scope string) []string {
	var out []string
	for _, e := range m.logs.All() {
		if e.LoggerName == scope {
			out = append(out, e.Message)
		}
	}
	return out
}

// Logs exposes the underlying observer for field-level assertions.
func (m *TestLogManager) Logs() *observer.ObservedLogs {
	return m.logs
}

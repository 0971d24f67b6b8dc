package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// LogEntry is one captured log call.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// RecordingLogger captures log calls for assertions.
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

func (r *RecordingLogger) add(level, msg string, args []interface{}) {
	r.mu.Lock()
	r.Entries = append(r.Entries, LogEntry{Level: level, Msg: msg, Args: args})
	r.mu.Unlock()
}

func (r *RecordingLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.add("debug", msg, keysAndValues)
}

func (r *RecordingLogger) Info(msg string, keysAndValues ...interface{}) {
	r.add("info", msg, keysAndValues)
}

func (r *RecordingLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.add("warn", msg, keysAndValues)
}

func (r *RecordingLogger) Error(msg string, keysAndValues ...interface{}) {
	r.add("error", msg, keysAndValues)
}

// Has reports whether any captured entry at the given level contains
// substr in its message.
func (r *RecordingLogger) Has(level, substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Entries {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// String renders the captured entries, useful in test failure output.
func (r *RecordingLogger) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "[%s] %s %v\n", e.Level, e.Msg, e.Args)
	}
	return b.String()
}

// Package logbuf keeps the process-wide download log: an append-only,
// timestamped, in-memory sequence of lines, mirrored to the structured
// logger. Nothing is persisted; the buffer is cleared only on explicit
// request.
package logbuf

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02 15:04:05"

// Log is safe for concurrent use; appends from the worker goroutine and reads
// from the display side are serialized by a mutex.
type Log struct {
	mu     sync.Mutex
	lines  []string
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Log {
	if logger == nil {
		logger = zap.S()
	}
	return &Log{logger: logger}
}

// Append records a timestamped line and mirrors it to the process logger.
func (l *Log) Append(s string) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format(timestampLayout), s)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
	l.logger.Info(s)
}

// Appendf is Append with formatting.
func (l *Log) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the buffered lines in append order.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := make([]string, len(l.lines))
	copy(lines, l.lines)
	return lines
}

// Text returns the whole buffer as one newline-joined string.
func (l *Log) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// Clear discards all buffered lines.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

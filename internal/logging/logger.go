// Package logging provides a small leveled key/value logger over the standard
// library log package.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger writes "[LEVEL] msg k=v ..." lines with a fixed prefix.
type Logger struct {
	logger *log.Logger
	debug  bool
}

// New creates a logger writing to stderr with the given prefix.
func New(prefix string) *Logger {
	return NewWithWriter(os.Stderr, prefix)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, prefix string) *Logger {
	return &Logger{
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, "")
}

// SetDebug enables or disables Debug output.
func (l *Logger) SetDebug(enabled bool) {
	l.debug = enabled
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs when debug is enabled.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.debug {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	var sb strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, sb.String())
}

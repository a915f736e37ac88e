package contract

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel is the severity of a log line.
type LogLevel int

// Supported log levels, lowest first.
const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// logTimeLayout is the timestamp layout of every log line.
const logTimeLayout = "2006-01-02 15:04:05"

var levelNames = map[LogLevel]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARNING",
	ErrorLevel: "ERROR",
}

var levelColors = map[LogLevel]*color.Color{
	DebugLevel: color.New(color.FgCyan),
	InfoLevel:  color.New(color.FgGreen),
	WarnLevel:  color.New(color.FgYellow, color.Bold),
	ErrorLevel: color.New(color.FgRed, color.Bold),
}

// String returns the label printed for the level.
func (l LogLevel) String() string {
	return levelNames[l]
}

// Logger writes leveled lines in the form "2006-01-02 15:04:05 - LEVEL - message".
// It is safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	level     LogLevel
	useColors bool
	now       func() time.Time
}

// NewLogger creates a logger writing to out. Debug lines are only written when verbose is set.
func NewLogger(out io.Writer, verbose, useColors bool) *Logger {
	level := InfoLevel
	if verbose {
		level = DebugLevel
	}
	return &Logger{out: out, level: level, useColors: useColors, now: time.Now}
}

// NewStderrLogger creates a logger for the given config writing to stderr.
func NewStderrLogger(cfg *Config) *Logger {
	return NewLogger(os.Stderr, cfg.Verbose, cfg.UseColors)
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *Logger {
	return NewLogger(io.Discard, false, false)
}

// WithClock replaces the clock used for timestamps.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Enabled reports whether lines of the given level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.level
}

// Debugf logs at DEBUG level.
func (l *Logger) Debugf(format string, args ...any) { l.logf(DebugLevel, format, args...) }

// Infof logs at INFO level.
func (l *Logger) Infof(format string, args ...any) { l.logf(InfoLevel, format, args...) }

// Warnf logs at WARNING level.
func (l *Logger) Warnf(format string, args ...any) { l.logf(WarnLevel, format, args...) }

// Errorf logs at ERROR level.
func (l *Logger) Errorf(format string, args ...any) { l.logf(ErrorLevel, format, args...) }

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	if l == nil || !l.Enabled(level) {
		return
	}
	label := level.String()
	if l.useColors {
		label = levelColors[level].Sprint(label)
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.out, "%s - %s - %s\n", l.now().Format(logTimeLayout), label, msg)
}

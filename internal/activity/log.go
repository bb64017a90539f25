// Package activity keeps the operator-facing, chronological record of what the
// agent did during a session. Every entry is also mirrored to the structured
// logger so the JSON log file carries the same history.
package activity

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level classifies an entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Entry is one line of the activity log.
type Entry struct {
	Time    time.Time
	Level   Level
	State   string
	Message string
}

// String renders the entry the way the operator sees it.
func (e Entry) String() string {
	if e.State == "" {
		return fmt.Sprintf("[%s] %s %s", e.Time.Format("15:04:05"), e.Level, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%s) %s", e.Time.Format("15:04:05"), e.Level, e.State, e.Message)
}

// Log is an append-only activity log, safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	logger  *zap.Logger
	out     io.Writer
	now     func() time.Time
}

// New creates a log. out may be nil when entries should only be kept in memory.
func New(logger *zap.Logger, out io.Writer) *Log {
	return &Log{
		logger: logger.Named("activity"),
		out:    out,
		now:    time.Now,
	}
}

// Info appends an informational entry.
func (l *Log) Info(state, format string, args ...interface{}) {
	l.append(LevelInfo, state, fmt.Sprintf(format, args...), nil)
}

// Error appends an error entry. err may be nil.
func (l *Log) Error(state string, err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	l.append(LevelError, state, msg, err)
}

func (l *Log) append(level Level, state, msg string, err error) {
	l.mu.Lock()
	e := Entry{Time: l.now(), Level: level, State: state, Message: msg}
	l.entries = append(l.entries, e)
	if l.out != nil {
		fmt.Fprintln(l.out, e.String())
	}
	l.mu.Unlock()

	fields := []zap.Field{zap.String("state", state)}
	if level == LevelError {
		l.logger.Error(msg, append(fields, zap.Error(err))...)
		return
	}
	l.logger.Info(msg, fields...)
}

// Entries returns a snapshot of the log in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Errors returns only the error entries, in order.
func (l *Log) Errors() []Entry {
	var errs []Entry
	for _, e := range l.Entries() {
		if e.Level == LevelError {
			errs = append(errs, e)
		}
	}
	return errs
}

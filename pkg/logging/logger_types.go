package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrUnknownLevel is returned by LookupLevel for names it does not know.
var ErrUnknownLevel = errors.New("unknown log level")

// Level orders log records by severity.
type Level int

const (
	// DebugLevel adds per-tick, per-roll and cascade step records
	DebugLevel Level = iota
	// InfoLevel records session lifecycle, resolved actions and faction switches
	InfoLevel
	// WarnLevel covers recoverable problems: a missing balance entry, a
	// dropped audit record, a threat transition that could not be applied
	WarnLevel
	// ErrorLevel covers recovered tick panics and unusable topology or config files
	ErrorLevel
)

var levelNames = [...]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// LookupLevel resolves a level name case-insensitively. WARNING is
// accepted for WARN.
func LookupLevel(name string) (Level, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if s == "WARNING" {
		return WarnLevel, nil
	}
	for l, n := range levelNames {
		if n == s {
			return Level(l), nil
		}
	}
	return InfoLevel, fmt.Errorf("%w %q (want debug, info, warn or error)", ErrUnknownLevel, name)
}

// ParseLevel is LookupLevel with unknown names falling back to InfoLevel,
// for environment variables that should never stop the game from starting.
func ParseLevel(name string) Level {
	l, _ := LookupLevel(name)
	return l
}

// Field is one key/value pair attached to a record.
type Field struct {
	Key   string
	Value any
}

// Logger is the structured logger every netsim package takes. Components
// derive a child with With(Component(...)) and log through it.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger writes one JSON object per record. Children made by With
// share the writer and its lock.
type JSONLogger struct {
	writer io.Writer
	level  Level
	fields []Field
	mu     *sync.Mutex
}

// LogEntry is the wire shape of a JSONLogger record.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger drops every record. Sessions built without a logger in tests use it.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return InfoLevel }

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return NopLogger{} }

// Package logging provides structured logging using bolt.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	mu            sync.Mutex
	defaultLogger *bolt.Logger
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is json or console.
	Format string
	Output io.Writer
}

// DefaultConfig logs info and above to stderr in console format.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: os.Stderr}
}

func parseLevel(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// New builds a logger from config without touching the default.
func New(config Config) *bolt.Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	var handler bolt.Handler
	if config.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}
	return bolt.New(handler).SetLevel(parseLevel(config.Level))
}

// Init replaces the default logger.
func Init(config Config) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = New(config)
}

// Get returns the default logger, initializing it if necessary.
func Get() *bolt.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}

// Field applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Request adds the chart request description.
func Request(desc string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request", desc)
	}
}

// Path adds a file path.
func Path(key, path string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, path)
	}
}

// Kind adds the chart kind.
func Kind(kind string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("kind", kind)
	}
}

// Count adds an integer counter.
func Count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Event chains Fields onto a bolt.Event.
type Event struct {
	event *bolt.Event
}

// With applies fields and returns the event for chaining.
func (l *Event) With(fields ...Field) *Event {
	for _, f := range fields {
		l.event = f(l.event)
	}
	return l
}

// Msg sends the event.
func (l *Event) Msg(msg string) {
	l.event.Msg(msg)
}

// On wraps an event from an explicit logger.
func On(e *bolt.Event) *Event {
	return &Event{event: e}
}

func Debug() *Event { return On(Get().Debug()) }
func Info() *Event  { return On(Get().Info()) }
func Warn() *Event  { return On(Get().Warn()) }
func Error() *Event { return On(Get().Error()) }

// Package obslog provides the engine's structured logging, correlating
// every line with the PUID partition and check family that produced it.
package obslog

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with PUID/check-family correlation and a built-in
// log-storm guard for registry warnings.
type Logger struct {
	log      zerolog.Logger
	suppress *stormGuard
}

// New creates a JSON structured logger for production use.
func New(writer io.Writer, serviceName string) *Logger {
	if writer == nil {
		writer = os.Stdout
	}
	log := zerolog.New(writer).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	return &Logger{log: log, suppress: newStormGuard(time.Minute)}
}

// NewConsole creates a human-readable console logger for local runs.
func NewConsole(serviceName string) *Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stdout}
	log := zerolog.New(cw).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	return &Logger{log: log, suppress: newStormGuard(time.Minute)}
}

// WithPUID returns a logger with the PUID attached as structured fields.
func (l *Logger) WithPUID(feature, procedure, observableProperty string) *Logger {
	log := l.log.With().
		Str("feature", feature).
		Str("procedure", procedure).
		Str("observableproperty", observableProperty).
		Logger()
	return &Logger{log: log, suppress: l.suppress}
}

// WithCheck returns a logger with the check family attached.
func (l *Logger) WithCheck(family string) *Logger {
	return &Logger{log: l.log.With().Str("check_family", family).Logger(), suppress: l.suppress}
}

// WithField returns a logger with one additional structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{log: l.log.With().Interface(key, value).Logger(), suppress: l.suppress}
}

// WithCtx returns a logger carrying correlation IDs found on ctx, if any.
func (l *Logger) WithCtx(ctx context.Context) *Logger {
	log := l.log
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok && id != "" {
		log = log.With().Str("correlation_id", id).Logger()
	}
	return &Logger{log: log, suppress: l.suppress}
}

type correlationIDKey struct{}

// ContextWithCorrelationID attaches a correlation ID to ctx for downstream
// logging.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func (l *Logger) Debug(msg string) { l.log.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.log.Info().Msg(msg) }
func (l *Logger) Error(err error, msg string) {
	l.log.Error().Err(err).Msg(msg)
}

// Warn logs a warning unconditionally.
func (l *Logger) Warn(msg string) {
	l.log.Warn().Msg(msg)
}

// WarnOncePerMinute logs a warning for keyPattern at most once per
// minute, so a broken registry entry cannot flood the log. Subsequent
// calls within the window are silently dropped.
func (l *Logger) WarnOncePerMinute(keyPattern, msg string) {
	if !l.suppress.allow(keyPattern) {
		return
	}
	l.log.Warn().Str("key_pattern", keyPattern).Msg(msg)
}

// stormGuard tracks the last time each key-pattern was allowed to log.
type stormGuard struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func newStormGuard(window time.Duration) *stormGuard {
	return &stormGuard{window: window, last: make(map[string]time.Time)}
}

func (g *stormGuard) allow(pattern string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	if last, ok := g.last[pattern]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[pattern] = now
	return true
}

package pandugo

import (
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"
)

// Logger is the minimal structured logging interface the client emits debug
// output through. Arguments are alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger is a plain stderr logger for development use.
type SimpleLogger struct{}

// NewSimpleLogger creates a console logger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{}
}

func (l *SimpleLogger) log(level, msg string, keysAndValues []any) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	fmt.Fprintln(os.Stderr, line)
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *SimpleLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// zapLogger adapts a zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps a zap logger for use with WithLogger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{sugar: l.Sugar()}
}

func (l *zapLogger) Debug(msg string, keysAndValues ...any) { l.sugar.Debugw(msg, keysAndValues...) }
func (l *zapLogger) Info(msg string, keysAndValues ...any)  { l.sugar.Infow(msg, keysAndValues...) }
func (l *zapLogger) Warn(msg string, keysAndValues ...any)  { l.sugar.Warnw(msg, keysAndValues...) }
func (l *zapLogger) Error(msg string, keysAndValues ...any) { l.sugar.Errorw(msg, keysAndValues...) }

// DebugConfig selects which pipeline events get logged.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogCache     bool
	LogRateLimit bool
	LogCircuit   bool
	RequestIDGen func() string
}

// DefaultDebugConfig enables all event categories once debug is switched on.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogRetries:   true,
		LogCache:     true,
		LogRateLimit: true,
		LogCircuit:   true,
		RequestIDGen: defaultRequestID,
	}
}

func defaultRequestID() string {
	return fmt.Sprintf("req_%08x", rand.Uint32())
}

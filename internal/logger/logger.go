package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey struct{}

var (
	//nolint:gochecknoglobals // The global level is shared by every logger built with a nil level.
	globalLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	//nolint:gochecknoglobals // The global logger is swapped atomically under the mutex.
	globalLogger *zap.SugaredLogger

	//nolint:gochecknoglobals // Protects globalLogger.
	globalMu sync.RWMutex
)

//nolint:gochecknoinits // The global logger must be usable before any configuration is loaded.
func init() {
	globalLogger = New(nil)
}

// New creates a sugared console logger writing to stderr.
// A nil level makes the logger follow the global level set by SetLevel.
func New(level zapcore.LevelEnabler) *zap.SugaredLogger {
	if level == nil {
		level = globalLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	return zap.New(core).Sugar()
}

// ParseLogLevel converts a textual level into a zap level.
// The second value is false when the text is not a known level,
// in which case InfoLevel is returned.
func ParseLogLevel(text string) (zapcore.Level, bool) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(text)))
	if err != nil || text == "" {
		return zapcore.InfoLevel, false
	}

	return level, true
}

// Level returns the current global level.
func Level() zapcore.Level {
	return globalLevel.Level()
}

// SetLevel changes the global level.
func SetLevel(level zapcore.Level) {
	globalLevel.SetLevel(level)
}

// IsDebugLevel reports whether debug messages are currently emitted.
func IsDebugLevel() bool {
	return globalLevel.Enabled(zapcore.DebugLevel)
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	return globalLogger
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.SugaredLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLogger = l
}

// WithKV returns a context whose log lines carry the given key/value pairs
// in addition to those already attached.
func WithKV(ctx context.Context, keysAndValues ...any) context.Context {
	existing, _ := ctx.Value(contextKey{}).([]any)

	merged := make([]any, 0, len(existing)+len(keysAndValues))
	merged = append(merged, existing...)
	merged = append(merged, keysAndValues...)

	return context.WithValue(ctx, contextKey{}, merged)
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	l := Logger()

	if ctx == nil {
		return l
	}

	if kv, ok := ctx.Value(contextKey{}).([]any); ok && len(kv) > 0 {
		return l.With(kv...)
	}

	return l
}

// Debug logs a message at debug level.
func Debug(ctx context.Context, args ...any) {
	fromContext(ctx).Debug(args...)
}

// Debugf logs a formatted message at debug level.
func Debugf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Debugf(format, args...)
}

// DebugKV logs a message with key/value pairs at debug level.
func DebugKV(ctx context.Context, message string, keysAndValues ...any) {
	fromContext(ctx).Debugw(message, keysAndValues...)
}

// Info logs a message at info level.
func Info(ctx context.Context, args ...any) {
	fromContext(ctx).Info(args...)
}

// Infof logs a formatted message at info level.
func Infof(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Infof(format, args...)
}

// InfoKV logs a message with key/value pairs at info level.
func InfoKV(ctx context.Context, message string, keysAndValues ...any) {
	fromContext(ctx).Infow(message, keysAndValues...)
}

// Warn logs a message at warn level.
func Warn(ctx context.Context, args ...any) {
	fromContext(ctx).Warn(args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Warnf(format, args...)
}

// WarnKV logs a message with key/value pairs at warn level.
func WarnKV(ctx context.Context, message string, keysAndValues ...any) {
	fromContext(ctx).Warnw(message, keysAndValues...)
}

// Error logs a message at error level.
func Error(ctx context.Context, args ...any) {
	fromContext(ctx).Error(args...)
}

// Errorf logs a formatted message at error level.
func Errorf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Errorf(format, args...)
}

// ErrorKV logs a message with key/value pairs at error level.
func ErrorKV(ctx context.Context, message string, keysAndValues ...any) {
	fromContext(ctx).Errorw(message, keysAndValues...)
}

// Fatal logs a message at fatal level and exits.
func Fatal(ctx context.Context, args ...any) {
	fromContext(ctx).Fatal(args...)
}

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Fatalf(format, args...)
}

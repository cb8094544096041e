package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// defaultLogFileMaxSize is the maximum size (in megabytes) of a rotated log file.
	defaultLogFileMaxSize = 10

	// defaultLogFileMaxBackups is the number of rotated log files to keep.
	defaultLogFileMaxBackups = 3

	// defaultLogFileMaxAge is the maximum age (in days) of a rotated log file.
	defaultLogFileMaxAge = 28
)

// loggerContextKey is the context key under which a request-scoped logger is stored.
type loggerContextKey struct{}

//nolint:gochecknoglobals // The global logger and its level are shared process-wide state.
var (
	globalMu     sync.RWMutex
	globalLogger *zap.Logger
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

//nolint:gochecknoinits // The package must be usable before any explicit configuration happens.
func init() {
	globalLogger = New(globalLevel)
}

// New creates a console logger writing to stderr at the given level.
// A nil level falls back to the package-wide level, so SetLevel keeps working.
func New(level zapcore.LevelEnabler) *zap.Logger {
	if level == nil {
		level = globalLevel
	}

	return zap.New(zapcore.NewCore(newConsoleEncoder(), zapcore.Lock(os.Stderr), level))
}

// NewWithRotation creates a logger that writes to stderr and additionally
// appends JSON entries to a size-rotated file managed by lumberjack.
func NewWithRotation(level zapcore.LevelEnabler, filename string) *zap.Logger {
	if level == nil {
		level = globalLevel
	}

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    defaultLogFileMaxSize,
		MaxBackups: defaultLogFileMaxBackups,
		MaxAge:     defaultLogFileMaxAge,
	})

	core := zapcore.NewTee(
		zapcore.NewCore(newConsoleEncoder(), zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(newEncoderConfig()), fileSink, level),
	)

	return zap.New(core)
}

func newEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	return cfg
}

func newConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(newEncoderConfig())
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	return globalLogger
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLogger = l
}

// Level returns the current package-wide log level.
func Level() zapcore.Level {
	return globalLevel.Level()
}

// SetLevel changes the package-wide log level.
func SetLevel(level zapcore.Level) {
	globalLevel.SetLevel(level)
}

// IsDebugLevel reports whether debug logging is currently enabled.
func IsDebugLevel() bool {
	return globalLevel.Enabled(zapcore.DebugLevel)
}

// ParseLogLevel parses a textual log level into a zap level.
// The second return value reports whether the input was recognized;
// unrecognized input falls back to the info level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "dpanic":
		return zapcore.DPanicLevel, true
	case "panic":
		return zapcore.PanicLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// ToContext stores a logger in the context so subsequent log calls
// made with that context carry its fields (e.g. a session id).
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// fromContext returns the context-scoped logger, or the global one.
func fromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(loggerContextKey{}).(*zap.Logger); ok && l != nil {
		return l.Sugar()
	}

	return Logger().Sugar()
}

// Debug logs a message at debug level.
func Debug(ctx context.Context, msg string) {
	fromContext(ctx).Debug(msg)
}

// Debugf logs a formatted message at debug level.
func Debugf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Debugf(format, args...)
}

// DebugKV logs a message with key-value pairs at debug level.
func DebugKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Debugw(msg, kv...)
}

// Info logs a message at info level.
func Info(ctx context.Context, msg string) {
	fromContext(ctx).Info(msg)
}

// Infof logs a formatted message at info level.
func Infof(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Infof(format, args...)
}

// InfoKV logs a message with key-value pairs at info level.
func InfoKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Infow(msg, kv...)
}

// Warn logs a message at warn level.
func Warn(ctx context.Context, msg string) {
	fromContext(ctx).Warn(msg)
}

// Warnf logs a formatted message at warn level.
func Warnf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Warnf(format, args...)
}

// WarnKV logs a message with key-value pairs at warn level.
func WarnKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Warnw(msg, kv...)
}

// Error logs a message at error level.
func Error(ctx context.Context, msg string) {
	fromContext(ctx).Error(msg)
}

// Errorf logs a formatted message at error level.
func Errorf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Errorf(format, args...)
}

// ErrorKV logs a message with key-value pairs at error level.
func ErrorKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Errorw(msg, kv...)
}

// Fatal logs a message at fatal level and exits the process.
func Fatal(ctx context.Context, msg string) {
	fromContext(ctx).Fatal(msg)
}

// Fatalf logs a formatted message at fatal level and exits the process.
func Fatalf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Fatalf(format, args...)
}

// FatalKV logs a message with key-value pairs at fatal level and exits the process.
func FatalKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Fatalw(msg, kv...)
}

package logger

import (
	"os"
	"sync"
	"time"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of the Uber zap logger.
type ZapLogger struct {
	mu     sync.RWMutex
	logger *zap.Logger
	level  zap.AtomicLevel
	file   *os.File
}

// NewZapLogger creates a JSON logger writing to stderr at info level.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &ZapLogger{
		logger: zap.New(newCore(zapcore.Lock(os.Stderr), level), zap.AddCaller(), zap.AddCallerSkip(1)),
		level:  level,
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// New wraps an existing zap logger. The wrapper's level gates entries before
// they reach z's own core.
func New(z *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: z.WithOptions(zap.AddCallerSkip(1)), level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

func newCore(ws zapcore.WriteSyncer, level zap.AtomicLevel) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), ws, level)
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
	os.Exit(1)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination switches output between the console and a file. A file
// destination without a path, or one that cannot be opened, keeps the
// current output and logs why.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	var ws zapcore.WriteSyncer
	var file *os.File
	switch dest {
	case contracts.ConsoleLog:
		ws = zapcore.Lock(os.Stderr)
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			z.Warn("file log destination without a path; keeping current output")
			return
		}
		f, err := os.OpenFile(filePath[0], os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			z.Error("cannot open log file", z.Field().String("path", filePath[0]), z.Field().Error("error", err))
			return
		}
		ws, file = zapcore.Lock(f), f
	default:
		z.Warn("unknown log destination", z.Field().String("destination", string(dest)))
		return
	}

	z.mu.Lock()
	old := z.file
	z.logger = zap.New(newCore(ws, z.level), zap.AddCaller(), zap.AddCallerSkip(1))
	z.file = file
	z.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.logger.Sync()
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}
	z.mu.RLock()
	l := z.logger
	z.mu.RUnlock()

	if ce := l.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok && f.field.Key != "" {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return &zapField{zap.Bool(key, val)}
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return &zapField{zap.Int(key, val)}
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return &zapField{zap.Float64(key, val)}
}

func (f *zapField) String(key string, val string) contracts.Field {
	return &zapField{zap.String(key, val)}
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return &zapField{zap.Time(key, val)}
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return &zapField{zap.Int64(key, val)}
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return &zapField{zap.NamedError(key, val)}
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return &zapField{zap.Uint64(key, val)}
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return &zapField{zap.Uint8(key, val)}
}

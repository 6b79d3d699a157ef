package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RFC3339Micros is RFC 3339 UTC with fixed microsecond precision.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

var (
	loggerOnce sync.Once
	baseLogger *zap.Logger

	// level is shared by every logger built in this package so SetLevel
	// takes effect on already-derived request loggers.
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// encodeTimeMicros formats timestamps as RFC 3339 with fixed microsecond precision.
func encodeTimeMicros(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(RFC3339Micros))
}

// encodeSeverity maps zap levels to Cloud Logging severity names.
func encodeSeverity(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var severity string
	switch l {
	case zapcore.DebugLevel:
		severity = "DEBUG"
	case zapcore.InfoLevel:
		severity = "INFO"
	case zapcore.WarnLevel:
		severity = "WARNING"
	case zapcore.ErrorLevel:
		severity = "ERROR"
	case zapcore.DPanicLevel:
		severity = "CRITICAL"
	case zapcore.PanicLevel:
		severity = "ALERT"
	case zapcore.FatalLevel:
		severity = "EMERGENCY"
	default:
		severity = "DEFAULT"
	}
	enc.AppendString(severity)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = encodeTimeMicros
	cfg.LevelKey = "severity"
	cfg.EncodeLevel = encodeSeverity
	cfg.MessageKey = "message"
	cfg.CallerKey = "caller"
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

// newLogger builds a JSON logger writing to ws at the shared level.
func newLogger(ws zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), ws, level)
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(ws))
}

// Logger returns the process-wide zap.Logger instance writing to stdout.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		baseLogger = newLogger(zapcore.Lock(os.Stdout))
	})
	return baseLogger
}

// Sync flushes buffered log entries. Call during shutdown.
func Sync() error {
	return Logger().Sync()
}

// SetLevel changes the minimum severity for all loggers. Accepts zap level
// names (debug, info, warn, error); "warning" is accepted as an alias of warn.
func SetLevel(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// Level reports the current minimum severity.
func Level() zapcore.Level {
	return level.Level()
}

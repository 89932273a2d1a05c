package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides colt's structured logging interface.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, err error, fields ...zap.Field)
	Fatal(msg string, err error, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	Sync() error
}

// zapLogger implements Logger using zap.
type zapLogger struct {
	logger *zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	Development bool   `mapstructure:"development"`
}

// New creates a new structured logger based on configuration.
func New(config Config) (Logger, error) {
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var encoderConfig zapcore.EncoderConfig
	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(config.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", config.Format)
	}

	var writeSyncer zapcore.WriteSyncer
	switch strings.ToLower(config.Output) {
	case "stdout", "":
		writeSyncer = zapcore.AddSync(os.Stdout)
	case "stderr":
		writeSyncer = zapcore.AddSync(os.Stderr)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writeSyncer = zapcore.AddSync(file)
	}

	var core zapcore.Core = zapcore.NewCore(encoder, writeSyncer, level)

	var options []zap.Option
	if config.Development {
		options = append(options, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		options = append(options, zap.AddCaller())
		// The dispatcher and collector log at query rate, not
		// benchmark-run rate — under sustained high QPS a single
		// misbehaving workload could otherwise flood the log sink.
		// Sample identical (message, level) pairs after the first
		// 100/sec, then once every 100th after that.
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	logger := zap.New(core, options...)

	return &zapLogger{logger: logger}, nil
}

// NewDefault creates a logger with sensible defaults, for use before a
// config has been loaded (flag parsing, config validation errors).
func NewDefault() Logger {
	l, err := New(Config{
		Level:       "info",
		Format:      "console",
		Output:      "stdout",
		Development: true,
	})
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		return &zapLogger{logger: fallback}
	}
	return l
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Debug(msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Info(msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Warn(msg, fields...)
}

func (l *zapLogger) Error(msg string, err error, fields ...zap.Field) {
	allFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		allFields = append(allFields, zap.Error(err))
	}
	allFields = append(allFields, fields...)
	l.logger.Error(msg, allFields...)
}

func (l *zapLogger) Fatal(msg string, err error, fields ...zap.Field) {
	allFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		allFields = append(allFields, zap.Error(err))
	}
	allFields = append(allFields, fields...)
	l.logger.Fatal(msg, allFields...)
}

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

// loggerFields provides common field constructors for structured logging.
type loggerFields struct{}

// Fields provides convenient field constructors.
var Fields loggerFields

func (loggerFields) String(key, value string) zap.Field {
	return zap.String(key, value)
}

func (loggerFields) Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func (loggerFields) Int64(key string, value int64) zap.Field {
	return zap.Int64(key, value)
}

func (loggerFields) Float64(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

func (loggerFields) Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

func (loggerFields) Duration(key string, value interface{}) zap.Field {
	switch v := value.(type) {
	case int64:
		return zap.Duration(key, time.Duration(v))
	case time.Duration:
		return zap.Duration(key, v)
	default:
		return zap.String(key, fmt.Sprintf("%v", value))
	}
}

func (loggerFields) Error(err error) zap.Field {
	return zap.Error(err)
}

func (loggerFields) Any(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

// TableKey creates fields identifying a table's keyspace-state cursor.
func (loggerFields) TableKey(table string, ordinal uint64) []zap.Field {
	return []zap.Field{
		zap.String("table", table),
		zap.Uint64("ordinal", ordinal),
	}
}

// Workload creates fields for workload selection context.
func (loggerFields) Workload(name string, queryKind fmt.Stringer) []zap.Field {
	return []zap.Field{
		zap.String("workload", name),
		zap.Stringer("query_kind", queryKind),
	}
}

// Database creates fields for database connection context.
func (loggerFields) Database(dbType string, keyspace string) []zap.Field {
	return []zap.Field{
		zap.String("db_type", dbType),
		zap.String("keyspace", keyspace),
	}
}

// Queue creates fields for bounded inter-stage queue state.
func (loggerFields) Queue(stage string, depth, target int) []zap.Field {
	return []zap.Field{
		zap.String("stage", stage),
		zap.Int("queue_depth", depth),
		zap.Int("queue_target", target),
	}
}

// Latency creates fields for a completed query's observed latency.
func (loggerFields) Latency(kind fmt.Stringer, latencyMs float64) []zap.Field {
	return []zap.Field{
		zap.Stringer("query_kind", kind),
		zap.Float64("latency_ms", latencyMs),
	}
}

// Termination creates fields describing why the watchdog decided to stop.
func (loggerFields) Termination(reason string, consecutive int) []zap.Field {
	return []zap.Field{
		zap.String("termination_reason", reason),
		zap.Int("consecutive", consecutive),
	}
}

// Supervisor creates fields describing a worker-count adjustment decision.
func (loggerFields) Supervisor(stage string, workers, maxWorkers int) []zap.Field {
	return []zap.Field{
		zap.String("stage", stage),
		zap.Int("workers", workers),
		zap.Int("max_workers", maxWorkers),
	}
}

package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the zap logger handed to clients, the container and the
// profiler. Children are derived with Named and With, never rebuilt.
type Logger struct {
	*zap.Logger
}

// Config selects the level and the output format.
type Config struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string
	// Development switches to colored console output with stack traces
	// on warnings.
	Development bool
	// OutputPaths defaults to stdout.
	OutputPaths []string
}

// ProcessConfig builds the configuration from the LOG_LEVEL and LOG_DEV
// settings. Development output always logs per-call debug lines.
func ProcessConfig(level string, development bool) Config {
	if development {
		level = "debug"
	}
	return Config{Level: level, Development: development}
}

// New builds a logger. JSON lines in production, console in development.
func New(cfg Config) (*Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.MessageKey = "message"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	}
	// every call line is kept
	zapCfg.Sampling = nil
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Wrap adopts an existing zap logger. A nil logger yields a no-op one.
func Wrap(l *zap.Logger) *Logger {
	if l == nil {
		return NewNop()
	}
	return &Logger{Logger: l}
}

// Named returns a child logger whose name is appended to the parent's. An
// empty name returns l itself, so an unset client logger option is a no-op.
func (l *Logger) Named(name string) *Logger {
	if name == "" {
		return l
	}
	return &Logger{Logger: l.Logger.Named(name)}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

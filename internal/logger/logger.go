package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Option customises the logger built by New
type Option func(*options)

type options struct {
	console zapcore.WriteSyncer
}

// WithConsole sends console output to w instead of stderr
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		o.console = zapcore.AddSync(w)
	}
}

// New creates a logger that writes human-readable lines to stderr and,
// when cfg.File is set, JSON lines to a rotated file. stdout is left to
// the report.
func New(cfg *Config, opts ...Option) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	cfg = cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	o := options{console: consoleSink{os.Stderr}}
	for _, opt := range opts {
		opt(&o)
	}

	level := getZapLevel(cfg.Level)
	enc := encoderConfig()

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(o.console), level),
	}

	if cfg.File != "" {
		fileCore, err := newFileCore(cfg, enc, level)
		if err != nil {
			return nil, err
		}
		cores = append(cores, fileCore)
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// ForRun tags every entry of log with a fresh run_id and returns the id
func ForRun(log *zap.Logger) (*zap.Logger, string) {
	id := uuid.New().String()
	return log.With(zap.String("run_id", id)), id
}

func encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	return enc
}

// newFileCore builds the JSON core on a lumberjack rotated file
func newFileCore(cfg *Config, enc zapcore.EncoderConfig, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), level), nil
}

// consoleSink writes to a terminal or pipe. Those cannot be fsynced, so
// EINVAL, ENOTTY and ENOTSUP from Sync are ignored.
type consoleSink struct {
	f *os.File
}

func (s consoleSink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s consoleSink) Sync() error {
	err := s.f.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.ENOTSUP) {
		return nil
	}
	return err
}

// getZapLevel converts string level to zapcore.Level
func getZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

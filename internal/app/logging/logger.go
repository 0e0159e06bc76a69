// Package logging provides the process observability sink: a zap logger
// writing to a size-rotated file and optionally the console.
//
// The sink is opened before any other component and closed after all of them.
// Components depend on the Logger interface, which has one method per
// severity, and never on the sink itself.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"vm-transcriber/internal/config"
)

// Logger is the logging surface used by every component. *zap.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// Sink owns the root logger and its outputs.
type Sink struct {
	root   *zap.Logger
	file   *lumberjack.Logger
	closed sync.Once
}

// Open builds the sink from settings. An empty file name disables file output.
func Open(cfg config.LoggingSettings, development bool) (*Sink, error) {
	level, err := zapcore.ParseLevel(config.NormalizeLevel(cfg.Level))
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := &Sink{}
	var cores []zapcore.Core

	if cfg.File != "" {
		sink.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(sink.file),
			level,
		))
	}

	if cfg.Console || cfg.File == "" {
		consoleConfig := encoderConfig
		if development {
			consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleConfig),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	sink.root = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return sink, nil
}

// NewNopSink returns a sink that discards everything.
func NewNopSink() *Sink {
	return &Sink{root: zap.NewNop()}
}

// NewSink wraps an existing zap logger, typically an observer in tests.
func NewSink(root *zap.Logger) *Sink {
	return &Sink{root: root}
}

// Named returns a child logger for a component.
func (s *Sink) Named(name string) *zap.Logger {
	return s.root.Named(name)
}

// Close flushes buffered entries and releases the rotating file. It is safe
// to call more than once.
func (s *Sink) Close() error {
	var err error
	s.closed.Do(func() {
		// Sync on a console core reports EINVAL for ttys; nothing to act on.
		_ = s.root.Sync()
		if s.file != nil {
			err = s.file.Close()
		}
	})
	return err
}

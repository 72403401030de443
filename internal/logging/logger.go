// Package logging carries run diagnostics (files discovered, counts, timings)
// to stderr. Stdout belongs to the deterministic report.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a levelled diagnostics sink. A nil *Logger discards everything.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a console logger writing to stderr at the given level.
func New(level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	config.Sampling = nil
	base, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return &Logger{sugar: base.Sugar()}, nil
}

// NewWriter builds a logger writing to w without timestamps, for tests and
// embedding.
func NewWriter(w io.Writer, level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = ""
	encoder.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoder), zapcore.AddSync(w), lvl)
	return &Logger{sugar: zap.New(core).Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func parseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zapcore.WarnLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.WarnLevel, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}

// Named scopes subsequent lines to a component.
func (l *Logger) Named(name string) *Logger {
	if l == nil || l.sugar == nil {
		return l
	}
	return &Logger{sugar: l.sugar.Named(name)}
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Printf logs at info level.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Infof(strings.TrimRight(format, "\n"), args...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Close flushes buffered entries. Sync errors on terminals are ignored.
func (l *Logger) Close() error {
	if l == nil || l.sugar == nil {
		return nil
	}
	_ = l.sugar.Sync()
	return nil
}

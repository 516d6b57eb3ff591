// Package logger wraps zap with a console encoder suited to a command-line
// tool: diagnostics go to stderr and only appear with --verbose.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with key/value convenience methods.
type Logger struct {
	*zap.Logger
}

// New creates a console logger writing to stderr. With verbose false only
// warnings and errors are shown; verbose true enables debug diagnostics such
// as the assembled engine command line and resource staging steps.
func New(verbose bool) *Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	log, err := cfg.Build()
	if err != nil {
		// The static stderr console config cannot fail to build.
		return &Logger{Logger: zap.NewNop()}
	}
	return &Logger{Logger: log}
}

// Debug logs a message at Debug level with key/value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, argsToFields(args...)...)
}

// Info logs a message at Info level with key/value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, argsToFields(args...)...)
}

// Warn logs a message at Warn level with key/value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, argsToFields(args...)...)
}

// Error logs a message at Error level with key/value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.Logger.Error(msg, argsToFields(args...)...)
}

// argsToFields converts variadic key/value args to zap fields.
func argsToFields(args ...any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

// internal/logging/logging.go
// Package logging holds the process-wide zap logger. Every entry carries the
// run_id of the current invocation.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	logFile *os.File
	logger  = zap.NewNop()
	runID   = uuid.NewString()

	// stderr receives warnings for the user; tests swap it out.
	stderr io.Writer = os.Stderr
)

func fileEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
}

// Init replaces the global logger. Warnings and errors always reach stderr,
// and debug lowers that threshold to debug. When logPath is set, every entry
// is also appended to it as JSON.
func Init(logPath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	closeFileLocked()

	consoleLevel := zapcore.WarnLevel
	if debug {
		consoleLevel = zapcore.DebugLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig()),
			zapcore.AddSync(stderr),
			consoleLevel,
		),
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			zapcore.AddSync(file),
			zapcore.DebugLevel,
		))
	}

	logger = zap.New(zapcore.NewTee(cores...)).With(zap.String("run_id", runID))
	return nil
}

// Close flushes the logger and releases the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	_ = logger.Sync()
	err := closeFileLocked()
	logger = zap.NewNop()
	return err
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// L returns the current logger.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// RunID identifies this invocation in every log entry.
func RunID() string { return runID }

// LogEvent records a printf-style informational entry.
func LogEvent(format string, args ...any) {
	L().Info(fmt.Sprintf(format, args...))
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

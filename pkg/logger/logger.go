// Package logger provides the process-wide structured log used by bookqa.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	globalLogger = zerolog.Nop()
	logFile      *os.File
	console      io.Writer
	level        = zerolog.DebugLevel
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	rebuild()
	return nil
}

// EnableConsole mirrors log output to w in human-readable form (used by --verbose).
func EnableConsole(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	console = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	rebuild()
}

// SetLevel changes the minimum level written. Accepts zerolog level names.
func SetLevel(name string) error {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}

	mu.Lock()
	defer mu.Unlock()
	level = lvl
	rebuild()
	return nil
}

// rebuild recreates the logger from the current sinks. Caller holds mu.
func rebuild() {
	var writers []io.Writer
	if logFile != nil {
		writers = append(writers, logFile)
	}
	if console != nil {
		writers = append(writers, console)
	}
	if len(writers) == 0 {
		globalLogger = zerolog.Nop()
		return
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	globalLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
}

// Close closes the log file and detaches the console.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	console = nil
	rebuild()
}

// L returns the structured logger for callers that attach fields.
func L() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := globalLogger
	return &l
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	L().Info().Msgf(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	L().Debug().Msgf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	L().Error().Msgf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	L().Warn().Msgf(format, v...)
}

// GetWriter returns the underlying writer for use by drivers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}

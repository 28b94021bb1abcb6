package logging

// Leveled logging for pcapexplain, backed by zerolog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

// String returns the flag spelling of the level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelSilent:
		return "silent"
	case LogLevelError:
		return "error"
	case LogLevelInfo:
		return "info"
	case LogLevelVerbose:
		return "verbose"
	case LogLevelDebug:
		return "debug"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// LevelFromFlags picks a level from the CLI verbosity flags. Debug wins over
// verbose, quiet wins over both.
func LevelFromFlags(verbose, debug, quiet bool) LogLevel {
	switch {
	case quiet:
		return LogLevelError
	case debug:
		return LogLevelDebug
	case verbose:
		return LogLevelVerbose
	}
	return LogLevelInfo
}

// Options configures a Logger.
type Options struct {
	Level   LogLevel
	LogFile string    // JSON lines, optional
	Console io.Writer // defaults to os.Stderr
	NoColor bool
}

// Logger provides structured logging
type Logger struct {
	mu    sync.Mutex
	level LogLevel
	file  *os.File
	zl    zerolog.Logger
}

// New creates a logger from opts.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(console),
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor,
	}}

	l := &Logger{level: opts.Level}

	// Open log file if specified
	if opts.LogFile != "" {
		file, err := os.Create(opts.LogFile)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.file = file
		writers = append(writers, zerolog.SyncWriter(file))
	}

	l.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerologLevel(opts.Level)).
		With().Timestamp().Logger()
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{level: LogLevelSilent, zl: zerolog.Nop()}
}

// Close closes the logger and flushes all data
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// With returns a child logger carrying an extra field on every message.
// The child shares the parent's outputs and must not be closed separately.
func (l *Logger) With(key, value string) *Logger {
	zl := l.logger()
	return &Logger{level: l.GetLevel(), zl: zl.With().Str(key, value).Logger()}
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	zl := l.logger()
	zl.Error().Msgf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	zl := l.logger()
	zl.Info().Msgf(format, v...)
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	if !l.Enabled(LogLevelVerbose) {
		return
	}
	zl := l.logger()
	zl.Debug().Msgf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	if !l.Enabled(LogLevelDebug) {
		return
	}
	zl := l.logger()
	zl.Debug().Bool("trace", true).Msgf(format, v...)
}

// Warn logs a warning. Shown at the same levels as Info.
func (l *Logger) Warn(format string, v ...interface{}) {
	zl := l.logger()
	zl.Warn().Msgf(format, v...)
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level != LogLevelSilent && l.GetLevel() >= level
}

// LogStartup logs the run parameters
func (l *Logger) LogStartup(capture string, batchSize, workers int, model, endpoint string, retryWaits []time.Duration) {
	l.Verbose("  Capture: %s", capture)
	l.Verbose("  Batch size: %d", batchSize)
	l.Verbose("  Workers: %d", workers)
	l.Verbose("  Model: %s", model)
	l.Verbose("  Endpoint: %s", endpoint)
	if len(retryWaits) == 0 {
		l.Verbose("  Retries: none")
		return
	}
	waits := make([]string, len(retryWaits))
	for i, d := range retryWaits {
		waits[i] = d.String()
	}
	l.Verbose("  Retries: %d (waits %s)", len(retryWaits), strings.Join(waits, ", "))
}

func (l *Logger) logger() zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.zl
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelSilent:
		return zerolog.Disabled
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelVerbose, LogLevelDebug:
		// verbose and debug are split in Verbose/Debug
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

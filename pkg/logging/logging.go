// pkg/logging/logging.go - leveled, structured logging for lappupdate.
//
// The package keeps a single logger instance shared by the whole process.
// Messages carry optional key-value pairs and go to the console and, when a
// log directory is configured, to a per-session log file named after a
// unique session identifier.

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel. Unrecognized values
// default to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Options holds the logger configuration.
type Options struct {
	Dir     string   // log file directory; empty disables the log file
	Level   LogLevel // highest severity to emit
	Console bool     // also write to stderr
}

// Logger encapsulates the leveled logging state.
type Logger struct {
	mu        sync.Mutex
	logger    *log.Logger
	level     LogLevel
	file      *os.File
	sessionID string
	console   bool
}

var (
	instance *Logger
	once     sync.Once
)

// Init initializes the singleton logger. It must be called before any
// logging function; before initialization all logging functions are no-ops.
func Init(opts Options) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(opts)
	})
	return initErr
}

func newLogger(opts Options) (*Logger, error) {
	l := &Logger{
		level:     opts.Level,
		sessionID: generateSessionID(),
		console:   opts.Console,
	}

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, os.Stderr)
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", opts.Dir, err)
		}
		name := fmt.Sprintf("lapptrack-%s.log", l.sessionID)
		f, err := os.OpenFile(filepath.Join(opts.Dir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	l.logger = log.New(io.MultiWriter(writers...), "", 0)
	return l, nil
}

// generateSessionID creates a unique session identifier combining the start
// time with a random component.
func generateSessionID() string {
	return fmt.Sprintf("%s-%s",
		time.Now().Format("2006-01-02-150405"),
		uuid.NewString()[:8])
}

// SessionID returns the current session identifier, or an empty string when
// the logger is not initialized.
func SessionID() string {
	if instance == nil {
		return ""
	}
	return instance.sessionID
}

// Close closes the log file if one is open.
func Close() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	if instance.file != nil {
		_ = instance.file.Close()
		instance.file = nil
	}
}

// SetLevel adjusts the logger verbosity after initialization.
func SetLevel(level LogLevel) {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.level = level
}

func (l *Logger) logMessage(level LogLevel, message string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return
	}

	line := fmt.Sprintf("%s %-5s %s",
		time.Now().Format("2006-01-02 15:04:05"), level, message)
	if kv := formatKeyValues(keysAndValues); kv != "" {
		line += " " + kv
	}
	l.logger.Print(line)
}

// formatKeyValues renders pairs as "key=value" fields. An odd trailing
// element is emitted as-is rather than dropped.
func formatKeyValues(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var parts []string
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", kv[i], kv[i+1]))
	}
	if len(kv)%2 != 0 {
		parts = append(parts, fmt.Sprintf("%v", kv[len(kv)-1]))
	}
	return strings.Join(parts, " ")
}

// Debug logs a message at DEBUG level.
func Debug(message string, keysAndValues ...interface{}) {
	if instance != nil {
		instance.logMessage(LevelDebug, message, keysAndValues...)
	}
}

// Info logs a message at INFO level.
func Info(message string, keysAndValues ...interface{}) {
	if instance != nil {
		instance.logMessage(LevelInfo, message, keysAndValues...)
	}
}

// Warn logs a message at WARN level.
func Warn(message string, keysAndValues ...interface{}) {
	if instance != nil {
		instance.logMessage(LevelWarn, message, keysAndValues...)
	}
}

// Error logs a message at ERROR level.
func Error(message string, keysAndValues ...interface{}) {
	if instance != nil {
		instance.logMessage(LevelError, message, keysAndValues...)
	}
}

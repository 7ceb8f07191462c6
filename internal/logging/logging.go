package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel represents the severity of a log message
type LogLevel int32

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	currentLevel atomic.Int32
	levelOnce    sync.Once
)

// ParseLevel converts a level name into a LogLevel. Unknown names map to
// LevelInfo and ok is false.
func ParseLevel(s string) (level LogLevel, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return level
}

func initLevel() {
	levelOnce.Do(func() {
		currentLevel.Store(int32(levelFromEnv()))
	})
}

// SetLevel overrides the level derived from the environment.
// Used by the CLI for --verbose and --quiet.
func SetLevel(level LogLevel) {
	levelOnce.Do(func() {})
	currentLevel.Store(int32(level))
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return LogLevel(currentLevel.Load())
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logf(level LogLevel, format string, args []interface{}) {
	if GetLevel() <= level {
		log.Printf("["+strings.ToUpper(level.String())+"] "+format, args...)
	}
}

// Debug logs per-item detail, enabled by DEBUG=true or LOG_LEVEL=debug.
func Debug(format string, args ...interface{}) { logf(LevelDebug, format, args) }

// Info logs lifecycle events.
func Info(format string, args ...interface{}) { logf(LevelInfo, format, args) }

// Warn logs recoverable problems.
func Warn(format string, args ...interface{}) { logf(LevelWarn, format, args) }

// Error logs failed operations.
func Error(format string, args ...interface{}) { logf(LevelError, format, args) }

// Fatal logs and exits with status 1 regardless of level.
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Printf always prints, regardless of level. Used for banners.
func Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lower case level name accepted by ParseLevel.
func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("unknown(%d)", l)
}

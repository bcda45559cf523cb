// Package logging provides levelled diagnostic output on stderr. Console
// output meant for the user (progress, outcomes) does not go through here.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels
const (
	None    = 0
	Error   = 1
	Warning = 2
	Info    = 3
	Debug   = 4
)

var currentLevel atomic.Int32

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stderr)
	currentLevel.Store(Info)
}

// SetLevel sets the global logging level.
func SetLevel(level int) {
	currentLevel.Store(int32(level))
	Logf(Debug, "Log level set to %d", level)
}

// GetLevel returns the current logging level.
func GetLevel() int {
	return int(currentLevel.Load())
}

// ParseLevel converts a string level to an integer level.
func ParseLevel(levelStr string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "none":
		return None, nil
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warning, nil
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	default:
		return Info, fmt.Errorf("invalid log level string: '%s'", levelStr)
	}
}

// SetupLogging initializes logging from a level string and returns the level
// that was applied. Unknown strings fall back to info with a warning.
func SetupLogging(levelStr string) int {
	level, err := ParseLevel(levelStr)
	if err != nil {
		Logf(Warning, "Invalid log level '%s' provided, defaulting to 'info'. %v", levelStr, err)
		level = Info
	}
	SetLevel(level)
	return level
}

// Logf logs a formatted message if the given level is enabled.
func Logf(level int, format string, v ...interface{}) {
	if level == None || int32(level) > currentLevel.Load() {
		return
	}
	prefix := ""
	switch level {
	case Error:
		prefix = "[ERROR] "
	case Warning:
		prefix = "[WARN]  "
	case Info:
		prefix = "[INFO]  "
	case Debug:
		prefix = "[DEBUG] "
	}
	log.Output(2, fmt.Sprintf(prefix+format, v...))
}

// Zap returns a zap logger for libraries that require one. The MTProto
// transport is verbose at info, so anything below debug maps to warn.
func Zap(level int) *zap.Logger {
	if level <= None {
		return zap.NewNop()
	}
	zapLevel := zapcore.WarnLevel
	switch {
	case level >= Debug:
		zapLevel = zapcore.DebugLevel
	case level == Error:
		zapLevel = zapcore.ErrorLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zapLevel),
	)
	return zap.New(core)
}

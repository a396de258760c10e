// Package logger provides leveled logging for the analytics run.
// Messages go to stderr with a [LEVEL] prefix so they never mix with the
// result stream written to the output file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel includes per-line skip diagnostics and is usually disabled.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel reports recoverable failures such as archive or notification errors.
	WarnLevel
	// ErrorLevel reports failures that end the run.
	ErrorLevel
)

var levelNames = map[string]Level{
	"debug": DebugLevel,
	"info":  InfoLevel,
	"warn":  WarnLevel,
	"error": ErrorLevel,
}

// ParseLevel converts a level name to a Level
func ParseLevel(name string) (Level, error) {
	l, ok := levelNames[strings.ToLower(name)]
	if !ok {
		return InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return l, nil
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger *Logger

// Init initializes the default logger writing to stderr.
// Unknown levels fall back to info.
func Init(level string, format string) {
	InitWriter(os.Stderr, level, format)
}

// InitWriter initializes the default logger writing to w
func InitWriter(w io.Writer, level string, format string) {
	l, err := ParseLevel(level)
	if err != nil {
		l = InfoLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  l,
		logger: log.New(w, "", flags),
	}
}

func output(l Level, tag string, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	_ = defaultLogger.logger.Output(3, fmt.Sprintf("["+tag+"] "+format, args...))
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	output(DebugLevel, "DEBUG", format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	output(InfoLevel, "INFO", format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	output(WarnLevel, "WARN", format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	output(ErrorLevel, "ERROR", format, args...)
}

// Fatal logs a message regardless of level and exits
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}

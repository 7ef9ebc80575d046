package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ParseLevel maps "debug", "info" or "error" to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	level       atomic.Int32
	infoLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
}

func New() *Logger {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters builds a logger that writes info/debug lines to out and errors to errOut.
func NewWithWriters(out, errOut io.Writer) *Logger {
	l := &Logger{
		infoLogger:  log.New(out, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(errOut, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		debugLogger: log.New(out, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
	l.level.Store(int32(LevelInfo))
	return l
}

func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) enabled(level Level) bool {
	return Level(l.level.Load()) <= level
}

// callDepth points Lshortfile at the code that called Info, Error, Debug or
// Fatal, whether through a Logger or the package functions.
const callDepth = 3

func (l *Logger) logf(level Level, lg *log.Logger, format string, v []interface{}) {
	if l.enabled(level) {
		lg.Output(callDepth, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(LevelInfo, l.infoLogger, format, v)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(LevelError, l.errorLogger, format, v)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(LevelDebug, l.debugLogger, format, v)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.errorLogger.Output(callDepth-1, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Global logger instance
var GlobalLogger = New()

// Convenience functions
func Info(format string, v ...interface{}) {
	GlobalLogger.logf(LevelInfo, GlobalLogger.infoLogger, format, v)
}

func Error(format string, v ...interface{}) {
	GlobalLogger.logf(LevelError, GlobalLogger.errorLogger, format, v)
}

func Debug(format string, v ...interface{}) {
	GlobalLogger.logf(LevelDebug, GlobalLogger.debugLogger, format, v)
}

func Fatal(format string, v ...interface{}) {
	GlobalLogger.errorLogger.Output(callDepth-1, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func SetLevel(level Level) {
	GlobalLogger.SetLevel(level)
}

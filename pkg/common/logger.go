package common

import (
	"fmt"
	"io"
	"log"
	"os"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogLevelDebug enables debug, info, and error logs
	LogLevelDebug LogLevel = iota
	// LogLevelInfo enables info and error logs (default)
	LogLevelInfo
	// LogLevelError enables only error logs
	LogLevelError
)

// Logger provides leveled logging with a per-component prefix
type Logger struct {
	level    LogLevel
	out      io.Writer
	debugLog *log.Logger
	infoLog  *log.Logger
	errorLog *log.Logger
	prefix   string
}

// NewLogger creates a new logger writing debug/info to stdout and errors to stderr
func NewLogger(level LogLevel, prefix string) *Logger {
	return NewLoggerTo(level, prefix, os.Stdout, os.Stderr)
}

// NewLoggerTo creates a logger with explicit writers for debug/info and error output
func NewLoggerTo(level LogLevel, prefix string, out, errOut io.Writer) *Logger {
	debugPrefix := ""
	infoPrefix := ""
	errorPrefix := ""

	if prefix != "" {
		debugPrefix = fmt.Sprintf("[%s][DEBUG] ", prefix)
		infoPrefix = fmt.Sprintf("[%s] ", prefix)
		errorPrefix = fmt.Sprintf("[%s][ERROR] ", prefix)
	}

	l := &Logger{
		out:      out,
		debugLog: log.New(io.Discard, debugPrefix, 0),
		infoLog:  log.New(io.Discard, infoPrefix, 0),
		errorLog: log.New(errOut, errorPrefix, 0),
		prefix:   prefix,
	}
	l.SetLevel(level)
	return l
}

// NewLoggerFromOptions creates a logger based on GlobalOptions. All of its
// output goes to stderr; stdout carries command results.
func NewLoggerFromOptions(opts *GlobalOptions, prefix string) *Logger {
	level := LogLevelInfo
	if opts != nil && opts.Verbose {
		level = LogLevelDebug
	}
	return NewLoggerTo(level, prefix, os.Stderr, os.Stderr)
}

// Discard returns a logger that drops everything, errors included
func Discard() *Logger {
	return NewLoggerTo(LogLevelError, "", io.Discard, io.Discard)
}

// Debug logs a debug-level message (only visible when verbose mode is enabled)
func (l *Logger) Debug(format string, v ...interface{}) {
	l.debugLog.Printf(format, v...)
}

// Info logs an info-level message
func (l *Logger) Info(format string, v ...interface{}) {
	l.infoLog.Printf(format, v...)
}

// Error logs an error-level message
func (l *Logger) Error(format string, v ...interface{}) {
	l.errorLog.Printf(format, v...)
}

// Debugln logs a debug-level message with a newline
func (l *Logger) Debugln(v ...interface{}) {
	l.debugLog.Println(v...)
}

// Infoln logs an info-level message with a newline
func (l *Logger) Infoln(v ...interface{}) {
	l.infoLog.Println(v...)
}

// Errorln logs an error-level message with a newline
func (l *Logger) Errorln(v ...interface{}) {
	l.errorLog.Println(v...)
}

// Level returns the current logging level
func (l *Logger) Level() LogLevel {
	return l.level
}

// SetLevel changes the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level

	if level <= LogLevelDebug {
		l.debugLog.SetOutput(l.out)
	} else {
		l.debugLog.SetOutput(io.Discard)
	}

	if level <= LogLevelInfo {
		l.infoLog.SetOutput(l.out)
	} else {
		l.infoLog.SetOutput(io.Discard)
	}
}

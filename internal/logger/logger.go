package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes leveled messages to the terminal and, optionally, a log file.
// File lines are timestamped; terminal lines are not.
type Logger struct {
	Verbose bool
	out     io.Writer
	errOut  io.Writer
	mu      sync.Mutex
	fileLog *os.File
	hasBar  bool
}

// New creates a Logger writing to stdout and stderr.
func New(verbose bool) *Logger {
	return &Logger{
		Verbose: verbose,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
}

// SetOutput redirects terminal output. Errors go to errOut.
func (l *Logger) SetOutput(out, errOut io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
	l.errOut = errOut
}

// SetFileLog enables logging to a file
func (l *Logger) SetFileLog(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.fileLog = f
	return nil
}

// SetProgressBar suppresses non-verbose terminal output while a bar is drawn.
func (l *Logger) SetProgressBar(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasBar = active
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		err := l.fileLog.Close()
		l.fileLog = nil
		return err
	}
	return nil
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Debug logs to the terminal only in verbose mode; the file always gets it.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Verbose {
		l.log("DEBUG", format, args...)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("DEBUG", fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// Error logs to stderr regardless of progress bar state.
func (l *Logger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.errOut, "[ERROR] %s\n", msg)
	l.writeFile("ERROR", msg)
}

func (l *Logger) log(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.Verbose || !l.hasBar {
		if level == "INFO" {
			fmt.Fprintln(l.out, msg)
		} else {
			fmt.Fprintf(l.out, "[%s] %s\n", level, msg)
		}
	}

	l.writeFile(level, msg)
}

// writeFile must be called with l.mu held.
func (l *Logger) writeFile(level, msg string) {
	if l.fileLog == nil {
		return
	}
	fmt.Fprintf(l.fileLog, "%s [%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), level, msg)
}

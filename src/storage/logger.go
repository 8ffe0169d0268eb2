package storage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"FlightRiskPricing/src/config"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// Logger writes timestamped leveled entries to a file and fans
// them out to subscribers.
type Logger struct {
	file        *os.File
	filename    string
	mu          sync.Mutex
	subscribers []chan string
}

// NewLogger creates a logger appending to filename.
// Parameters:
//
//	filename: log file path
//
// Returns:
//
//	*Logger: logger instance
//	error: file open error
func NewLogger(filename string) (*Logger, error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		file:     file,
		filename: filename,
	}, nil
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Reopen switches logging to a new file.
// Parameters:
//
//	filename: path of the replacement file
//
// Returns:
//
//	error: file open error
func (l *Logger) Reopen(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.filename = filename
	return nil
}

// Log records one entry.
// Parameters:
//
//	level: entry severity
//	message: entry text
func (l *Logger) Log(level LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := fmt.Sprintf("[%s] %s: %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level.String(),
		message)

	l.file.WriteString(entry)

	// Notify subscribers, skipping any with a full channel.
	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
}

// CheckRotate rotates the log file once it exceeds the configured size.
func (l *Logger) CheckRotate(cfg *config.Config) error {
	l.mu.Lock()
	info, err := l.file.Stat()
	size := int64(0)
	if err == nil {
		size = info.Size()
	}
	l.mu.Unlock()

	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if cfg.LogMaxSize > 0 && size > cfg.LogMaxSize {
		return l.rotate()
	}
	return nil
}

func (l *Logger) rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
		rotated := fmt.Sprintf("%s.%s", l.filename, time.Now().Format("20060102150405"))
		if err := os.Rename(l.filename, rotated); err != nil {
			return fmt.Errorf("rotate log file: %w", err)
		}
	}

	file, err := os.OpenFile(l.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("reopen log file: %w", err)
	}
	l.file = file
	return nil
}

// Subscribe returns a channel receiving every future log entry.
// Returns:
//
//	<-chan string: buffered receive-only entry channel
func (l *Logger) Subscribe() <-chan string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan string, 100)
	l.subscribers = append(l.subscribers, ch)
	return ch
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Shortcut methods per level.
func (l *Logger) Debug(msg string)   { l.Log(DEBUG, msg) }
func (l *Logger) Info(msg string)    { l.Log(INFO, msg) }
func (l *Logger) Warning(msg string) { l.Log(WARNING, msg) }
func (l *Logger) Error(msg string)   { l.Log(ERROR, msg) }
func (l *Logger) Fatal(msg string)   { l.Log(FATAL, msg) }

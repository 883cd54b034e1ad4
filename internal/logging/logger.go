// Package logging writes leveled, size-rotated logs under the project's
// .revisit/logs directory. CLI output stays on stdout; everything here is
// for after-the-fact diagnosis of a browser run.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Level orders log records by severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration value to a level; unknown or empty names
// fall back to info
func ParseLevel(name string) Level {
	switch name {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

const (
	logDirName  = ".revisit/logs"
	logFileName = "revisit.log"

	// When the file grows past this, it is moved aside to revisit.log.old
	// (replacing any previous one) and a fresh file is started. One
	// generation of history is enough for a CLI tool.
	rotateAt = int64(10 * 1024 * 1024)
)

// Logger is a leveled file logger with single-sidecar size rotation
type Logger struct {
	mu    sync.Mutex
	level Level
	path  string
	file  *os.File
	out   *log.Logger
	size  int64
}

var (
	global *Logger
	once   sync.Once
)

// Initialize opens the global log file under the given project directory.
// Subsequent calls are no-ops.
func Initialize(projectDir string) error {
	var initErr error
	once.Do(func() {
		l := &Logger{level: LevelInfo}
		initErr = l.open(filepath.Join(projectDir, logDirName, logFileName))
		global = l
	})
	return initErr
}

// GetLogger returns the global logger, initializing it against the current
// directory when nothing did so earlier
func GetLogger() *Logger {
	Initialize(".")
	return global
}

func (l *Logger) open(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if info, err := file.Stat(); err == nil {
		l.size = info.Size()
	}

	l.path = path
	l.file = file
	l.out = log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	return nil
}

// rotate moves the current file to the .old sidecar and starts fresh.
// Failures are swallowed; losing rotation must never break the run.
func (l *Logger) rotate() {
	if l.file != nil {
		l.file.Close()
	}
	os.Rename(l.path, l.path+".old")
	l.size = 0
	l.open(l.path)
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.out == nil {
		return
	}

	if l.size >= rotateAt {
		l.rotate()
	}

	msg := fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, v...))
	l.out.Output(3, msg)
	l.size += int64(len(msg)) + 1
}

// SetLevel sets the minimum severity the logger records
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Path returns the active log file path
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Close flushes and closes the underlying file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Package-level helpers on the global logger

func SetLevel(level Level) { GetLogger().SetLevel(level) }

func Debug(format string, v ...interface{}) { GetLogger().write(LevelDebug, format, v...) }
func Info(format string, v ...interface{})  { GetLogger().write(LevelInfo, format, v...) }
func Warn(format string, v ...interface{})  { GetLogger().write(LevelWarn, format, v...) }
func Error(format string, v ...interface{}) { GetLogger().write(LevelError, format, v...) }

// Writer adapts the logger to io.Writer so the standard log package can be
// pointed at the same file
func Writer() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		Info("%s", p)
		return len(p), nil
	})
}

type writerFunc func(p []byte) (int, error)

func (w writerFunc) Write(p []byte) (int, error) { return w(p) }

// RedirectStandardLog routes the standard log package into this logger
func RedirectStandardLog() {
	log.SetOutput(Writer())
	log.SetFlags(0)
}

package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent // Disables all logging
)

var levelNames = map[Level]string{
	LevelDebug:  "DEBUG",
	LevelInfo:   "INFO",
	LevelWarn:   "WARN",
	LevelError:  "ERROR",
	LevelSilent: "SILENT",
}

// String returns the level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel parses a level string, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "SILENT", "OFF", "NONE":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// Fields represents structured log fields.
type Fields map[string]interface{}

// Format specifies the log output format.
type Format int

const (
	FormatText Format = iota // Human-readable text format
	FormatJSON               // JSON format for log aggregation
)

// Logger provides structured logging with levels.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	format Format
	fields Fields
	name   string
	clock  func() time.Time
}

// LoggerOption configures a logger.
type LoggerOption func(*Logger)

// WithOutput sets the output writer.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *Logger) { l.out = w }
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *Logger) { l.level = level }
}

// WithFormat sets the output format.
func WithFormat(format Format) LoggerOption {
	return func(l *Logger) { l.format = format }
}

// WithFields sets default fields for all log entries.
func WithFields(fields Fields) LoggerOption {
	return func(l *Logger) { l.fields = fields }
}

// WithName sets the logger name.
func WithName(name string) LoggerOption {
	return func(l *Logger) { l.name = name }
}

// NewLogger creates a new logger with the given options.
func NewLogger(opts ...LoggerOption) *Logger {
	l := &Logger{
		out:    os.Stderr,
		level:  LevelInfo,
		format: FormatText,
		fields: make(Fields),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) clone() *Logger {
	return &Logger{
		out:    l.out,
		level:  l.level,
		format: l.format,
		fields: l.fields,
		name:   l.name,
		clock:  l.clock,
	}
}

// With returns a new logger with additional default fields.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	next := l.clone()
	next.fields = merged
	return next
}

// Named returns a new logger with the given name appended to the current one.
func (l *Logger) Named(name string) *Logger {
	next := l.clone()
	if l.name != "" {
		next.name = l.name + "." + name
	} else {
		next.name = name
	}
	return next
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Fields) { l.log(LevelDebug, msg, fields...) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Fields) { l.log(LevelInfo, msg, fields...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Fields) { l.log(LevelWarn, msg, fields...) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Fields) { l.log(LevelError, msg, fields...) }

func (l *Logger) log(level Level, msg string, extra ...Fields) {
	if level < l.level {
		return
	}

	merged := make(Fields, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range extra {
		for k, v := range f {
			merged[k] = v
		}
	}

	var line []byte
	if l.format == FormatJSON {
		line = l.encodeJSON(level, msg, merged)
	} else {
		line = l.encodeText(level, msg, merged)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(line)
}

func (l *Logger) encodeJSON(level Level, msg string, fields Fields) []byte {
	entry := make(map[string]interface{}, len(fields)+4)
	entry["time"] = l.clock().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	if l.name != "" {
		entry["logger"] = l.name
	}
	for k, v := range fields {
		entry[k] = v
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return []byte(fmt.Sprintf("LOG_ERROR: %v\n", err))
	}
	return append(data, '\n')
}

func (l *Logger) encodeText(level Level, msg string, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(l.clock().Format("15:04:05.000"))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s", level.String())
	b.WriteByte(' ')
	if l.name != "" {
		b.WriteByte('[')
		b.WriteString(l.name)
		b.WriteString("] ")
	}
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// --- Global Logger ---

var (
	globalLogger   = NewLogger()
	globalLoggerMu sync.RWMutex
)

// SetLogger sets the global logger.
func SetLogger(l *Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

// GetLogger returns the global logger.
func GetLogger() *Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// Debug logs at debug level using the global logger.
func Debug(msg string, fields ...Fields) { GetLogger().Debug(msg, fields...) }

// Info logs at info level using the global logger.
func Info(msg string, fields ...Fields) { GetLogger().Info(msg, fields...) }

// Warn logs at warn level using the global logger.
func Warn(msg string, fields ...Fields) { GetLogger().Warn(msg, fields...) }

// Error logs at error level using the global logger.
func Error(msg string, fields ...Fields) { GetLogger().Error(msg, fields...) }

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return NewLogger(WithLevel(LevelSilent))
}

// TestLogger returns a logger suitable for testing (debug level, text format).
func TestLogger(w io.Writer) *Logger {
	return NewLogger(
		WithOutput(w),
		WithLevel(LevelDebug),
		WithFormat(FormatText),
	)
}

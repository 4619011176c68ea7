package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel converts a string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level  // Minimum log level
	FilePath   string // Path to log file, empty disables file output
	MaxSize    int64  // Max size in bytes before rotation, rounded up to whole megabytes
	MaxAge     int    // Max age in days (default: 7)
	MaxBackups int    // Max number of backup files
	Console    bool   // Enable console logging
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := filepath.Join(home, ".projectdraft", "logs", "projectdraft.log")

	return Config{
		Level:      INFO,
		FilePath:   logPath,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // keeps the wizard screen clean
	}
}

// Logger writes leveled entries through a zap core
type Logger struct {
	config Config
	zl     *zap.Logger
	file   *lumberjack.Logger
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	var writers []zapcore.WriteSyncer
	l := &Logger{config: config}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    megabytes(config.MaxSize),
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			LocalTime:  true,
		}
		writers = append(writers, zapcore.AddSync(l.file))
	}

	if config.Console {
		writers = append(writers, zapcore.Lock(os.Stderr))
	}

	l.zl = zap.New(newCore(zapcore.NewMultiWriteSyncer(writers...), config.Level), zap.AddCaller(), zap.AddCallerSkip(2))
	return l, nil
}

// NewWriter creates a logger that writes to w, mainly for tests and tools
func NewWriter(w io.Writer, level Level) *Logger {
	cfg := Config{Level: level}
	return &Logger{
		config: cfg,
		zl:     zap.New(newCore(zapcore.AddSync(w), level), zap.AddCaller(), zap.AddCallerSkip(2)),
	}
}

// megabytes rounds a byte limit up to lumberjack's unit. Zero keeps its default.
func megabytes(n int64) int {
	if n <= 0 {
		return 0
	}
	return int((n + 1<<20 - 1) >> 20)
}

func newCore(ws zapcore.WriteSyncer, level Level) zapcore.Core {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), ws, level.zapLevel())
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// write is the single entry point so caller skip is the same for every path
func (l *Logger) write(level Level, msg string, fields []Field) {
	if l == nil || l.zl == nil {
		return
	}
	if ce := l.zl.Check(level.zapLevel(), msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		config: l.config,
		zl:     l.zl.With(toZap(fields)...),
		file:   l.file,
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.write(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.write(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.write(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.write(ERROR, msg, fields)
}

// Close flushes buffered entries and closes the log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.zl.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Global logger functions

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	globalLogger.write(DEBUG, msg, fields)
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	globalLogger.write(INFO, msg, fields)
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	globalLogger.write(WARN, msg, fields)
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	globalLogger.write(ERROR, msg, fields)
}

// WithFields creates a new logger with preset fields using the global logger
func WithFields(fields ...Field) *Logger {
	return globalLogger.WithFields(fields...)
}

// Close closes the global logger
func Close() error {
	return globalLogger.Close()
}

// GetConfig returns the current logger configuration
func GetConfig() Config {
	if globalLogger != nil {
		return globalLogger.config
	}
	return DefaultConfig()
}

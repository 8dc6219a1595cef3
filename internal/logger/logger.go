package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application logger instance
var Logger zerolog.Logger

// Init initializes the logger with the given configuration, writing to stdout
func Init(level, format string) {
	InitWithWriter(level, format, os.Stdout)
}

// InitWithWriter initializes the logger with the given configuration and output
func InitWithWriter(level, format string, out io.Writer) {
	// Set log level
	logLevel := parseLogLevel(level)
	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	if strings.ToLower(format) == "json" {
		Logger = zerolog.New(out).With().
			Timestamp().
			Caller().
			Logger()
	} else {
		// Console format, colors only when writing to a terminal stream
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stdout && out != os.Stderr,
		}
		Logger = zerolog.New(output).With().
			Timestamp().
			Caller().
			Logger()
	}

	// Set the global logger
	log.Logger = Logger
}

// NewFileWriter returns a size-rotated log file writer. The CLI logs here so
// that stdout only carries command output.
func NewFileWriter(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}, nil
}

// parseLogLevel parses string log level to zerolog level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}

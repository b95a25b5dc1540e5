// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Stdout is the log file name that selects standard output.
const Stdout = "stdout"

// Rotation settings for log files.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Setup creates a text logger at logLevel writing to logFile, installs it as
// the default logger and returns it.  logFile is either Stdout or the path
// of a file that is rotated by size.
func Setup(logLevel string, logFile string) *slog.Logger {
	var logWriter io.Writer = os.Stdout
	handlerOptions := &slog.HandlerOptions{Level: getLogLevel(logLevel)}

	if logFile != "" && logFile != Stdout {
		logWriter = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		}
	} else {
		// Remove the time key when writing to stdout.
		handlerOptions.ReplaceAttr = func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return attr
		}
	}

	logger := slog.New(slog.NewTextHandler(logWriter, handlerOptions))
	slog.SetDefault(logger)
	return logger
}

func getLogLevel(logLevel string) slog.Level {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return level
}

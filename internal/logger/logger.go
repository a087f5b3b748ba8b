// Package logger builds the process-wide zerolog logger.
//
// Development (dev): human-readable console output.
// Staging/production: one JSON object per line, easy to ingest by log
// aggregators. Either way an optional rotating file receives a copy.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// ParseLevel accepts zerolog names plus the "warning" and "critical"
// spellings. Anything unknown means info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "critical", "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to out in the format env calls for.
func New(out io.Writer, env, level string) zerolog.Logger {
	return newLogger(formatWriter(out, env, false), level)
}

// Setup builds the logger for stdout (plus a rotating file, if set),
// installs it as the global and context-default logger, and returns it.
func Setup(env, level, file string) zerolog.Logger {
	stdout := formatWriter(os.Stdout, env, false)
	out := stdout

	var dirErr error
	if file != "" {
		if dirErr = os.MkdirAll(filepath.Dir(file), 0o755); dirErr == nil {
			out = zerolog.MultiLevelWriter(stdout, formatWriter(&lumberjack.Logger{
				Filename:   file,
				MaxSize:    DefaultMaxSizeMB,
				MaxBackups: DefaultMaxBackups,
				MaxAge:     DefaultMaxAgeDays,
				Compress:   true,
			}, env, true))
		}
	}

	logger := newLogger(out, level)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	if dirErr != nil {
		logger.Error().Err(dirErr).Str("path", file).Msg("failed to prepare log directory; logging to stdout only")
	}
	return logger
}

func newLogger(out io.Writer, level string) zerolog.Logger {
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

func formatWriter(out io.Writer, env string, noColor bool) io.Writer {
	switch env {
	case "prod", "staging":
		return out
	default:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05", NoColor: noColor}
	}
}

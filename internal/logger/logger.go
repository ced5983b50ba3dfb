package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"watchsweep/config"
)

const timeFormat = "2006-01-02 15:04:05"

// New builds the process logger: a human-readable console writer on out and,
// when cfg.File is set, a rotating JSON file that keeps the run tallies
// machine-readable.
func New(cfg config.LogConfig, out io.Writer) (zerolog.Logger, io.Closer, error) {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeFormat,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
	}

	writers := []io.Writer{consoleWriter}
	var closer io.Closer = nopCloser{}

	if strings.TrimSpace(cfg.File) != "" {
		if dir := filepath.Dir(cfg.File); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return zerolog.Nop(), nil, fmt.Errorf("create log directory %s: %w", dir, err)
			}
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, rotating)
		closer = rotating
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(ParseLevel(cfg.Level))

	return logger, closer, nil
}

// Console returns a console-only logger used before the config is loaded.
func Console(out io.Writer) zerolog.Logger {
	l, _, _ := New(config.LogConfig{Level: "info"}, out)
	return l
}

// ParseLevel maps the config level names onto zerolog levels, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component derives a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Package logger builds the zerolog logger used across teralink.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"teralink/internal/config"
)

// New creates a logger from the log configuration. Output always goes to
// stderr; when cfg.File is set it is also written to a rotating file.
// The standard library logger is redirected into the result.
func New(cfg config.LogConfig, debug bool) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parsing log level: %w", err)
	}
	if debug {
		level = zerolog.DebugLevel
	}

	writers := []io.Writer{consoleWriter(os.Stderr, cfg.Format, false)}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return zerolog.Nop(), fmt.Errorf("creating log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
		}
		// Files never get ANSI colours.
		writers = append(writers, consoleWriter(rotator, cfg.Format, true))
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(log)
	stdlog.SetFlags(0)

	return log, nil
}

func consoleWriter(out io.Writer, format string, noColor bool) io.Writer {
	if format == "json" {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

package config

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the application logger from cfg.
// Console output is human-readable unless log.format is "json". When log.file
// is set, entries are additionally written as JSON to a rotating file; the
// returned Closer flushes and closes it.
func NewLogger(cfg *Config, out io.Writer) (zerolog.Logger, io.Closer) {
	if out == nil {
		out = os.Stdout
	}

	var console io.Writer = out
	if cfg.Log.Format != "json" {
		console = zerolog.ConsoleWriter{
			Out:     out,
			NoColor: false,
		}
	}

	writer := console
	var closer io.Closer = nopCloser{}
	if cfg.Log.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		}
		writer = zerolog.MultiLevelWriter(console, fileWriter)
		closer = fileWriter
	}

	logger := zerolog.New(writer).With().Timestamp().Logger()

	// Parse and set log level from config
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", cfg.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	logger = logger.Level(level)
	logger.Debug().Str("level", level.String()).Msg("Logging configured")

	return logger, closer
}

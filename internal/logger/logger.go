package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/vintagebikes/internal/config"
)

// New builds the process logger. Pretty selects the console writer, otherwise
// JSON lines go to stdout. An unknown level falls back to info.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "vintagebikes").Logger()
}

package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New builds a zerolog logger. Console output is used unless JSON is set.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Setup replaces the global logger used through github.com/rs/zerolog/log.
func Setup(cfg Config, service string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = New(cfg).With().Str("service", service).Logger()
}

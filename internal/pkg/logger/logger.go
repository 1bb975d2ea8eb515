package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/env"
)

// New creates the application logger. Development gets a human-readable
// console writer, everything else emits JSON lines.
func New() zerolog.Logger {
	var w io.Writer = os.Stdout
	if env.IsDev() {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zl := zerolog.New(w).Level(parseLevel(env.GetEnv("LOG_LEVEL", "info"))).
		With().Timestamp().Logger()

	// Redirect the global zerolog logger so libraries using it stay consistent
	log.Logger = zl

	return zl
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// serviceName tags every log line so the exam service is distinguishable
// in shared log aggregation.
const serviceName = "taleem-backend"

// Setup initializes the global zerolog configuration and returns the root
// logger every subsystem (flow service, archive worker, handlers) derives
// its own from.
//   - level: log level string (trace, debug, info, warn, error, fatal, panic)
//   - format: "json" for production, "pretty" for human-readable dev output
func Setup(level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var writer io.Writer
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	} else {
		writer = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(writer).
		With().
		Timestamp().
		Str("service", serviceName)

	// Caller annotation is only worth its cost while debugging; the 1 Hz
	// tick loop logs too often to pay for runtime.Caller in production.
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}

	return ctx.Logger()
}

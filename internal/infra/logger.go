package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs a zerolog.Logger for the given environment. The cli
// environment logs warnings and above to stderr so stdout stays usable.
func NewLogger(appEnv string) zerolog.Logger {
	switch appEnv {
	case "cli":
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(zerolog.WarnLevel).
			With().
			Timestamp().
			Logger()
	case "development":
		return zerolog.New(os.Stdout).
			Level(zerolog.DebugLevel).
			With().
			Timestamp().
			Logger().
			Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	default:
		return zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}
}

// Logger aliases zerolog.Logger so other packages depend on the logging
// contract through infra.
type Logger = zerolog.Logger

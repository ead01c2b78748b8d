package testlog

import (
	"testing"

	"github.com/danmuck/buildtree/internal/logging"
	"github.com/rs/zerolog"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	l := logging.Base()
	l.Info().Str("test", t.Name()).Msg("start")
}

// Logger returns a logger that writes through t.Log so output is attached to
// the running test.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	w := zerolog.NewConsoleWriter(zerolog.ConsoleTestWriter(t), func(cw *zerolog.ConsoleWriter) {
		cw.NoColor = true
	})
	return zerolog.New(w).Level(zerolog.DebugLevel).With().Str("test", t.Name()).Logger()
}

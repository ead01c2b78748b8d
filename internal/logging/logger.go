package logging

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	baseMu sync.RWMutex
	base   = zerolog.Nop()
)

func setBase(l zerolog.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = l
}

// Base returns the configured base logger, configuring the runtime profile
// when nothing has been configured yet.
func Base() zerolog.Logger {
	ConfigureRuntime()
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

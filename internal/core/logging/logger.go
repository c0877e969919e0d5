// Package logging holds the zerolog helpers shared by every component.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ComponentKey is the field that names the emitting component.
const ComponentKey = "component"

// Component creates a logger from the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return ComponentOf(log.Logger, name)
}

// ComponentOf tags an injected logger with a component name.
func ComponentOf(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(ComponentKey, name).Logger()
}

package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/cacheable"
)

// Logger adapts a zerolog.Logger.
type Logger struct{ L zerolog.Logger }

var _ cacheable.Logger = Logger{}

// New tags every line with component=cacheable.
func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "cacheable").Logger()}
}

func (z Logger) Debug(msg string, f cacheable.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f cacheable.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f cacheable.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f cacheable.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }

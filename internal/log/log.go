// Package log configures the process-wide zerolog.Logger: a leveled,
// structured sink written to stdout (console-pretty when the pretty
// flag is set, JSON otherwise), stamped with the run identifier every log
// line carries.
//
// Grounded on R2Northstar-Atlas's pkg/atlas/server.go configureLogging:
// zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), with the
// ConsoleWriter-vs-plain-writer choice this package reduces to a single
// "pretty" flag appropriate for radarfeed's single-output needs.
package log

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/1090mhz-uk/radarfeed/internal/runid"
)

// New builds the process logger at the level set by spec.md §6's
// integer --debug flag: debug<=0 maps to zerolog's InfoLevel, 1 to
// DebugLevel, and 2 or more to TraceLevel. pretty selects
// human-readable console output over newline-delimited JSON.
func New(debug int, pretty bool) zerolog.Logger {
	level := levelFromDebug(debug)

	var w = os.Stdout
	base := zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level)
	if !pretty {
		base = zerolog.New(w).Level(level)
	}

	return base.With().
		Timestamp().
		Str("run_id", runid.Current()).
		Logger()
}

func levelFromDebug(debug int) zerolog.Level {
	switch {
	case debug <= 0:
		return zerolog.InfoLevel
	case debug == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

package internal

import (
	"log/slog"
	"strconv"
	"sync/atomic"
)

// Shared log level. Handlers built by the CLI read it on every record, so
// flag parsing can raise or lower verbosity after the logger exists.
var LogLevel = new(slog.LevelVar)

var verbose atomic.Bool // Whether log records carry source locations.

// Seeds the logging mode from linker flags.
//
// Unparseable values are ignored and leave the default (info, no source).
func init() {
	Configure(parseFlag(rawDebug), parseFlag(rawQuiet), parseFlag(rawVerbose))
}

// Sets the logging mode.
//
// Debug wins over quiet. Verbose only controls source locations.
func Configure(debug, quiet, verboseMode bool) {
	switch {
	case debug:
		LogLevel.Set(slog.LevelDebug)
	case quiet:
		LogLevel.Set(slog.LevelWarn)
	default:
		LogLevel.Set(slog.LevelInfo)
	}
	verbose.Store(verboseMode)
}

// Whether debug records are emitted.
func IsDebug() bool {
	return LogLevel.Level() <= slog.LevelDebug
}

// Whether informational records are suppressed.
func IsQuiet() bool {
	return LogLevel.Level() >= slog.LevelWarn
}

// Whether log records carry source locations.
func IsVerbose() bool {
	return verbose.Load()
}

// Returns the linker-flag defaults for debug, quiet, and verbose.
func Defaults() (debug, quiet, verboseMode bool) {
	return parseFlag(rawDebug), parseFlag(rawQuiet), parseFlag(rawVerbose)
}

func parseFlag(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

package cmd

import (
	"strings"

	"github.com/maxbolgarin/logze/v2"
)

// setupLogging configures the global logger. Verbose runs log at least at
// info level unless a level was given explicitly.
func setupLogging(level string, verbose bool) logze.Logger {
	if verbose {
		level = "info"
	}

	switch strings.ToLower(level) {
	case "debug":
		logze.Init(logze.C().WithConsole().WithLevel(logze.LevelDebug))
	case "info":
		logze.Init(logze.C().WithConsole().WithLevel(logze.LevelInfo))
	case "error":
		logze.Init(logze.C().WithConsole().WithLevel(logze.LevelError))
	default:
		logze.Init(logze.C().WithConsole().WithLevel(logze.LevelWarn))
	}

	return logze.With("component", "cli")
}

package app

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/peakatlas/globesync/pkg/logging"
)

// NewLogger creates a logger from the configuration. Level precedence:
//  1. --log-level
//  2. -v/--verbose (debug) or -q/--quiet (warn)
//  3. default (info)
func NewLogger(config *Config) zerolog.Logger {
	logger := logging.NewConsole()
	return logger.Level(determineLogLevel(config))
}

func determineLogLevel(config *Config) zerolog.Level {
	if config.LogLevel != "" {
		if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			return level
		}
		os.Stderr.WriteString("Warning: invalid log level " + config.LogLevel + ", using info\n")
		return zerolog.InfoLevel
	}
	if config.Quiet {
		return zerolog.WarnLevel
	}
	if config.Verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

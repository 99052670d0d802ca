// Package app wires configuration, logging, and the command tree for the
// globesync CLI.
package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// App holds the CLI's shared state.
type App struct {
	version string
	commit  string
	date    string
	config  *Config
	logger  *zerolog.Logger
}

// New creates the application, loading configuration from the environment
// and any config file.
func New(version, commit, date string) (*App, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(config)
	return &App{
		version: version,
		commit:  commit,
		date:    date,
		config:  config,
		logger:  &logger,
	}, nil
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// ExitOnError prints an error to stderr and exits with status 1.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

package app

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the globesync CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "globesync",
		Short:   "Live POI globe sync toolkit",
		Version: a.version,
		Long: `Globesync keeps a rendered globe of points of interest in step with a
remote dataset. It bundles the GeoJSON API server, the background geocode
worker, and a headless watcher for the reconciliation engine itself.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.SetVersionTemplate("globesync {{.Version}}\n")

	rootCmd.AddCommand(a.NewServeCommand())
	rootCmd.AddCommand(a.NewWatchCommand())
	rootCmd.AddCommand(a.NewTablesCommand())
	rootCmd.AddCommand(a.NewSeedCommand())
	rootCmd.AddCommand(a.NewVersionCommand())

	return rootCmd
}

// setupCommand runs before any command and folds parsed global flags back
// into the configuration.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	logLevel, _ := cmd.Flags().GetString("log-level")

	a.config.UpdateFromFlags(verbose, quiet, logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

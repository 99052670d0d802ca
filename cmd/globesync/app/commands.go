package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/peakatlas/globesync"
	"github.com/peakatlas/globesync/internal/server"
	"github.com/peakatlas/globesync/internal/store"
	"github.com/peakatlas/globesync/pkg/geocode"
	"github.com/peakatlas/globesync/pkg/records"
)

// openStore opens the configured backend, preferring PostgreSQL when a
// DATABASE_URL is set.
func (a *App) openStore() (store.Store, error) {
	if a.config.DatabaseURL != "" {
		a.logger.Debug().Msg("Using PostgreSQL store")
		return store.OpenPostgres(a.config.DatabaseURL)
	}
	a.logger.Debug().Str("path", a.config.SQLitePath).Msg("Using SQLite store")
	return store.OpenSQLite(a.config.SQLitePath)
}

// NewServeCommand serves the GeoJSON API, optionally with the geocode
// worker alongside.
func (a *App) NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the GeoJSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}
			if a.config.SeedFile != "" {
				if err := a.applySeed(ctx, st); err != nil {
					return err
				}
			}

			srv := server.New(st,
				server.WithAddr(a.config.ListenAddr),
				server.WithLogger(a.logger),
			)

			if a.config.GeocodeEnabled {
				worker := geocode.NewWorker(st, geocode.NewResolver(),
					geocode.WithInterval(a.config.WorkerInterval),
					geocode.WithMetrics(srv.Metrics()),
					geocode.WithLogger(a.logger),
				)
				go func() {
					_ = worker.Run(ctx)
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.logger.Info().Msg("Shutting down")
				return srv.Shutdown(context.Background())
			}
		},
	}

	cmd.Flags().StringVar(&a.config.ListenAddr, "addr", a.config.ListenAddr, "bind address")
	cmd.Flags().StringVar(&a.config.SeedFile, "seed", a.config.SeedFile, "YAML seed file to load at startup")
	cmd.Flags().BoolVar(&a.config.GeocodeEnabled, "geocode", a.config.GeocodeEnabled, "run the geocode worker alongside the API")
	cmd.Flags().DurationVar(&a.config.WorkerInterval, "worker-interval", a.config.WorkerInterval, "geocode worker sweep interval")
	return cmd
}

// NewWatchCommand runs the reconciliation engine headless against an
// endpoint and prints every change it applies.
func (a *App) NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a dataset endpoint and print reconciled changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.config.Endpoint == "" {
				return fmt.Errorf("an endpoint is required (--endpoint or GLOBESYNC_ENDPOINT)")
			}

			client, err := globesync.New(
				globesync.WithEndpoint(a.config.Endpoint),
				globesync.WithPollInterval(a.config.PollInterval),
				globesync.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			title := cases.Title(language.English)
			client.OnRecordAdded(func(rec records.Record) {
				fmt.Fprintf(cmd.OutOrStdout(), "+ %s (%s)\n", rec.Name, title.String(rec.Country))
			})
			client.OnRecordUpdated(func(_, updated records.Record) {
				fmt.Fprintf(cmd.OutOrStdout(), "~ %s\n", updated.Name)
			})
			client.OnRecordRemoved(func(rec records.Record) {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", rec.Name)
			})

			if err := client.AutoRefreshOn(); err != nil {
				return err
			}

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&a.config.Endpoint, "endpoint", a.config.Endpoint, "dataset endpoint URL")
	cmd.Flags().DurationVar(&a.config.PollInterval, "interval", a.config.PollInterval, "poll interval")
	return cmd
}

// NewTablesCommand lists the registered POI tables.
func (a *App) NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List registered POI tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			tables, err := st.Tables(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tFEATURES\tPENDING")
			for _, table := range tables {
				features, err := st.Features(cmd.Context(), table)
				if err != nil {
					return err
				}
				pending, err := st.Pending(cmd.Context(), table, 1<<30, 1<<30)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%d\n", table, len(features), len(pending))
			}
			return w.Flush()
		},
	}
}

// NewSeedCommand loads a YAML seed file into the store.
func (a *App) NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a YAML seed file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			a.config.SeedFile = args[0]
			return a.applySeed(cmd.Context(), st)
		},
	}
}

// NewVersionCommand prints version information.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "globesync %s (commit %s, built %s)\n", a.version, a.commit, a.date)
		},
	}
}

func (a *App) applySeed(ctx context.Context, st store.Store) error {
	seed, err := store.LoadSeed(a.config.SeedFile)
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, st); err != nil {
		return err
	}
	a.logger.Info().Str("file", a.config.SeedFile).Int("tables", len(seed.Tables)).
		Msg("Seed applied")
	return nil
}

// Package cli implements the prayerbook command line.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/prayerbook/internal/config"
	"github.com/mrlokans/prayerbook/internal/entrypoint"
	"github.com/mrlokans/prayerbook/internal/logger"
)

// rootOptions holds the global flag values shared by every subcommand.
type rootOptions struct {
	version string
	dbPath  string
	lang    string
	json    bool
	debug   bool
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	root := &cobra.Command{
		Use:           "prayerbook",
		Short:         "Offline-first prayer library with a synced local mirror",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to the local database (default: $DATABASE_PATH or "+config.DefaultDatabasePath+")")
	root.PersistentFlags().StringVar(&opts.lang, "lang", "", "language code for prayer text (default: $DEFAULT_LANGUAGE)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "output as JSON")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(opts),
		newSyncCommand(opts),
		newStatusCommand(opts),
		newSearchCommand(opts),
		newCategoriesCommand(opts),
		newPrayersCommand(opts),
		newPrayerCommand(opts),
		newLatestCommand(opts),
		newFavoritesCommand(opts),
		newUserCategoriesCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the sync engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the prayerbook version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "prayerbook", opts.version)
		},
	}
}

func runServe(opts *rootOptions) error {
	cfg := opts.config()
	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug, Dir: cfg.Log.Dir}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return entrypoint.Run(cfg, opts.version)
}

// config loads the environment configuration and applies flag overrides.
func (o *rootOptions) config() *config.Config {
	cfg := config.NewConfig()
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.debug {
		cfg.Log.Debug = true
	}
	return cfg
}

// openApp builds the application for a one-shot command. Background workers
// stay off; logs go to stderr so they never mix with command output.
func (o *rootOptions) openApp(stderr io.Writer) (*entrypoint.App, error) {
	logger.SetOutput(stderr)
	if o.debug {
		logger.Get().SetLevel(log.DebugLevel)
	}
	return entrypoint.Build(o.config(), entrypoint.BuildOptions{})
}

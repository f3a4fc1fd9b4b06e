// Command migrate manages the back-office database schema.
//
//	migrate up
//	migrate down [n]
//	migrate goto <version>
//	migrate create <name> [description]
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/logger"
	"github.com/m13/backoffice/internal/infrastructure/migration"
)

type options struct {
	path     string
	logLevel string
	log      *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply and author back-office SQL migrations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = log

			dir, err := migration.Locate(opts.path)
			if err != nil {
				return err
			}
			opts.path = dir
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = logger.Sync(opts.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.path, "path", "", "migrations directory (default ./migrations)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		dbCommand(opts, "up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		dbCommand(opts, "down [n]", "Roll back n migrations, all when omitted", cobra.MaximumNArgs(1),
			func(m *migration.Migrator, args []string) error {
				n := 0
				if len(args) == 1 {
					var err error
					if n, err = positiveInt(args[0]); err != nil {
						return err
					}
				}
				return m.Down(n)
			}),
		dbCommand(opts, "steps <n>", "Apply n migrations, negative n rolls back", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		dbCommand(opts, "goto <version>", "Migrate to a specific version", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		dbCommand(opts, "force <version>", "Set the version without running migrations", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		dbCommand(opts, "version", "Print the applied version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				opts.log.Info("Current migration version",
					zap.Uint("version", st.Version),
					zap.Bool("dirty", st.Dirty))
				return nil
			}),
		createCommand(opts),
		listCommand(opts),
	)
	return root
}

// dbCommand builds a subcommand that needs a database connection
func dbCommand(opts *options, use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			db, err := sql.Open("postgres", cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			if err := db.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}

			m, err := migration.New(db, opts.path, opts.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					opts.log.Warn("Failed to close migrator", zap.Error(err))
				}
			}()
			return fn(m, a)
		},
	}
}

func createCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Write an empty up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			f, err := migration.CreateMigration(opts.path, args[0], description, time.Now())
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.String("version", f.Version),
				zap.String("up", f.UpPath),
				zap.String("down", f.DownPath))
			return nil
		},
	}
}

func listCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := migration.ListMigrations(opts.path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				mark := ""
				if !e.HasDown {
					mark = " (no down)"
				}
				fmt.Fprintf(out, "%d  %s%s\n", e.Version, e.Name, mark)
			}
			return nil
		},
	}
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive count, got %q", s)
	}
	return n, nil
}

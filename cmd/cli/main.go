package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"timestudy/adapters/postgres"
	"timestudy/internal/config"
	"timestudy/internal/container"
	"timestudy/internal/migration"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:          "timestudy-cli",
		Short:        "Time study administration and terminal scan station",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedAdminsCmd(),
		newSweepCmd(),
		newImportCmd(),
		newScanCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMigrateCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Create every table and index the server needs. With --reset all tables are
dropped first, which deletes all data.

Example: timestudy-cli migrate --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := postgres.Open(cfg.Database.Driver, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := migration.NewRunner()
			if reset {
				if err := migrator.Reset(cmd.Context(), db); err != nil {
					return err
				}
			}
			return migrator.Run(cmd.Context(), db)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all tables before migrating")
	return cmd
}

func newSeedAdminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admins [badge-id...]",
		Short: "Replace all companies with one company and admin per badge",
		Long: `Delete every company (and with it every user, process and timing), then create
a company named "<BADGE> Company" with an admin user for each badge id.

Example: timestudy-cli seed-admins DEMO HAROLD`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			result, err := c.SeedAdmins(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Abandon stale sessions and purge expired login tokens",
		Long: `Mark timing sessions left open longer than ABANDON_AFTER as abandoned and delete
expired login tokens. The server runs the same sweep periodically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			result, err := c.Sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newImportCmd() *cobra.Command {
	var adminBadge string
	var processName string

	cmd := &cobra.Command{
		Use:   "import [file.xlsx]",
		Short: "Create a process from an operation sheet",
		Long: `Import an operation sheet into the company of the given admin. The process name
is taken from --name, or from the sheet when omitted.

Example: timestudy-cli import line3.xlsx --admin DEMO --name "Line 3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			result, err := c.ImportAs(cmd.Context(), adminBadge, data, processName)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&adminBadge, "admin", "", "Badge id of the importing admin")
	cmd.Flags().StringVar(&processName, "name", "", "Process name (defaults to the name in the sheet)")
	cmd.MarkFlagRequired("admin")
	return cmd
}

// openContainer connects to the configured database, applies the schema and wires the services
func openContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := postgres.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	c, err := container.New(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

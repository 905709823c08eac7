package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/hostel/backend/internal/infrastructure/config"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"github.com/hostel/backend/internal/infrastructure/migration"
	"github.com/hostel/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var (
	migrationsPath string
	logLevel       string
	log            *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Billing database migration tool",
	Long: `Applies and inspects the billing schema migrations.

Migrations are read from the binary's embedded copy unless --path points at a
directory. Connection settings come from config.toml and HOSTEL_DATABASE_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		log, err = logger.New(&logger.Config{
			Level:      logLevel,
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "2006-01-02 15:04:05",
		})
		return err
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return withMigrator(func(m *migration.Migrator) error { return m.Up() })
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return withMigrator(func(m *migration.Migrator) error { return m.Down() })
	},
}

var stepCmd = &cobra.Command{
	Use:     "step <n>",
	Short:   "Apply n migrations (positive=up, negative=down)",
	Example: "  migrate step -- -1",
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.GoTo(uint(version)) })
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current migration version",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				log.Info("No migrations applied")
				return nil
			}
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Force set migration version (use with caution)",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		log.Warn("Forcing migration version - use with caution!", zap.Int("version", version))
		return withMigrator(func(m *migration.Migrator) error { return m.Force(version) })
	},
}

var createCmd = &cobra.Command{
	Use:     "create <name> [description]",
	Short:   "Create a new migration file pair",
	Example: `  migrate create add_late_fee_column "Late fee on invoices"`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsPath
		}
		mf, err := migration.CreateMigration(dir, args[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available migrations",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		var (
			list []migration.MigrationInfo
			err  error
		)
		if migrationsPath != "" {
			list, err = migration.ListMigrations(migrationsPath)
		} else {
			list, err = migration.ListMigrationsFS(migrations.FS)
		}
		if err != nil {
			return err
		}
		if len(list) == 0 {
			log.Info("No migrations found")
			return nil
		}
		for _, m := range list {
			fmt.Printf("  %06d  %s  down=%t\n", m.Version, m.Name, m.HasDown)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: embedded migrations)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(upCmd, downCmd, stepCmd, gotoCmd, versionCmd, forceCmd, createCmd, listCmd)
}

// withMigrator opens the configured database and runs fn against a migrator
func withMigrator(fn func(m *migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var m *migration.Migrator
	if migrationsPath != "" {
		m, err = migration.New(db, migrationsPath, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

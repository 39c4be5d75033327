package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/audiorefresh/internal/config"
	"github.com/Taichi-iskw/audiorefresh/internal/repository/common"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long:  `Apply or roll back the SQL migrations against the configured database.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, 0)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		return runMigrations(cmd, -steps)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		dir, _ := cmd.Flags().GetString("dir")

		version, err := common.CurrentMigration(dir, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		printVersion(cmd, version)
		return nil
	},
}

func runMigrations(cmd *cobra.Command, steps int) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dir, _ := cmd.Flags().GetString("dir")

	version, err := common.ApplyMigrations(dir, cfg.DatabaseURL, steps)
	if err != nil {
		return err
	}
	printVersion(cmd, version)
	return nil
}

func printVersion(cmd *cobra.Command, v *common.MigrationVersion) {
	if v.Dirty {
		cmd.Printf("Schema version: %d (dirty)\n", v.Version)
		return
	}
	cmd.Printf("Schema version: %d\n", v.Version)
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.PersistentFlags().String("dir", "migrations", "Directory containing the SQL migrations")
	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

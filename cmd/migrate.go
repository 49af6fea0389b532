package cmd

import (
	"fmt"
	"log"

	"github.com/psds-microservice/live-request-service/internal/config"
	"github.com/psds-microservice/live-request-service/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new SQL migration in internal/database/migrations",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrateCreate,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateCreateCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Println("migrate up: ok")
	return nil
}

func runMigrateCreate(cmd *cobra.Command, args []string) error {
	if err := database.CreateMigration(args[0]); err != nil {
		return fmt.Errorf("migrate create: %w", err)
	}
	return nil
}

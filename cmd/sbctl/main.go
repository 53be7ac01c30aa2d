// main.go - Admin control tool for salesboard
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/karloscodes/cartridge"
	"github.com/spf13/cobra"

	"salesboard/internal/config"
	"salesboard/internal/database"
)

var rootCmd = &cobra.Command{
	Use:           "sbctl",
	Short:         "Administer the salesboard warehouse",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newImportCmd(),
		newReportCmd(),
		newStatusCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sbctl: %v\n", err)
		os.Exit(1)
	}
}

// openWarehouse connects to the configured database and makes sure the
// warehouse tables exist.
func openWarehouse() (*database.DBManager, *slog.Logger, error) {
	cfg := config.GetConfig()
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return dbManager, logger, nil
}

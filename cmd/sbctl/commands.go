package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"salesboard/internal/database"
	"salesboard/internal/reports"
	"salesboard/internal/seeder"
	"salesboard/internal/warehouse"
)

func closeWarehouse(dm *database.DBManager) {
	if db := dm.GetConnection(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the warehouse tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dm, _, err := openWarehouse()
			if err != nil {
				return err
			}
			defer closeWarehouse(dm)
			fmt.Fprintln(cmd.OutOrStdout(), "warehouse tables are up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var (
		orders int
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the warehouse contents with generated demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if orders < 0 {
				return fmt.Errorf("--orders must not be negative")
			}
			dm, logger, err := openWarehouse()
			if err != nil {
				return err
			}
			defer closeWarehouse(dm)

			if err := seeder.NewSeeder(dm, logger, orders, seed).Run(cmd.Context()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d orders (seed %d)\n", orders, seed)
			return nil
		},
	}

	cmd.Flags().IntVar(&orders, "orders", 2000, "number of orders to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed; the same seed yields the same data")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Load warehouse rows from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dm, logger, err := openWarehouse()
			if err != nil {
				return err
			}
			defer closeWarehouse(dm)

			stats, err := seeder.ImportFile(cmd.Context(), logger, dm.GetConnection(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d sales lines and %d inventory snapshots\n", stats.Sales, stats.Inventory)
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var (
		year     int
		category string
	)

	cmd := &cobra.Command{
		Use:       "report <name>",
		Short:     "Compute a report and print it as JSON",
		ValidArgs: reports.Names(),
		Args:      exactlyOneValidArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawYear := ""
			if year != 0 {
				rawYear = strconv.Itoa(year)
			}
			filter, err := reports.ParseFilter(rawYear, category)
			if err != nil {
				return err
			}

			dm, _, err := openWarehouse()
			if err != nil {
				return err
			}
			defer closeWarehouse(dm)

			report, err := reports.Build(cmd.Context(), dm.GetConnection(), args[0], filter, time.Now().UTC())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "only include orders from this year")
	cmd.Flags().StringVar(&category, "category", "", "only include products of this category")
	return cmd
}

func exactlyOneValidArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	return cobra.OnlyValidArgs(cmd, args)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show row counts and the years and categories on file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dm, _, err := openWarehouse()
			if err != nil {
				return err
			}
			defer closeWarehouse(dm)

			db := dm.GetConnection()
			out := cmd.OutOrStdout()

			counts, err := warehouse.Counts(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, c := range counts {
				fmt.Fprintf(out, "%-24s %d\n", c.Table, c.Rows)
			}

			years, err := warehouse.ListYears(cmd.Context(), db)
			if err != nil {
				return err
			}
			categories, err := warehouse.ListCategories(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-24s %v\n", "years", years)
			fmt.Fprintf(out, "%-24s %v\n", "categories", categories)
			return nil
		},
	}
}

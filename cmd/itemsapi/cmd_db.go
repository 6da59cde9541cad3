package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/itemsapi/database/seeders"
)

// itemsapi migrate
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run all pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
			return a.Migrator(cmd.OutOrStdout()).Run()
		},
	}
}

// itemsapi migrate:rollback
func migrateRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "migrate:rollback",
		Aliases: []string{"migrate:down"},
		Short:   "Rollback the last batch of migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
			return a.Migrator(cmd.OutOrStdout()).Rollback()
		},
	}
}

// itemsapi migrate:status
func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show the status of each migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Migrator(cmd.OutOrStdout()).PrintStatus()
		},
	}
}

// itemsapi seed
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Run all database seeders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
			return seeders.RunAll(cmd.Context(), a.DB, cmd.OutOrStdout(), seeders.All()...)
		},
	}
}

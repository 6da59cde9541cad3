package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/itemsapi/config"
	"github.com/shashiranjanraj/itemsapi/pkg/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "itemsapi",
		Short:         "Items API: CRUD service for items",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")

	// Server
	root.AddCommand(serveCmd())
	root.AddCommand(routeListCmd())

	// Database
	root.AddCommand(migrateCmd())
	root.AddCommand(migrateRollbackCmd())
	root.AddCommand(migrateStatusCmd())
	root.AddCommand(seedCmd())
	return root
}

// boot loads config, builds the logger and connects to the database.
func boot(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	return app.Boot(ctx, cfg, os.Stdout)
}

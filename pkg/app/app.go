// Package app holds the process-wide resources of the items API: the loaded
// configuration, the logger (with its remote sink) and the database.
//
// Every CLI command boots one App and closes it on exit:
//
//	a, err := app.Boot(ctx, cfg, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	return a.Migrator(os.Stdout).Run()
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/config"
	"github.com/shashiranjanraj/itemsapi/database/migrations"
	"github.com/shashiranjanraj/itemsapi/pkg/database"
	"github.com/shashiranjanraj/itemsapi/pkg/logger"
	"github.com/shashiranjanraj/itemsapi/pkg/migration"
)

// App is built once per process and handed to the commands.
type App struct {
	Config *config.Config
	Log    *slog.Logger
	DB     *gorm.DB

	closeLog func()
}

// Boot builds the logger (writing JSON lines to logOut), installs it as the
// slog default and connects to the database.
func Boot(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	log, closeLog := logger.New(cfg, logOut)
	slog.SetDefault(log)

	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("app: %w", err)
	}
	return &App{Config: cfg, Log: log, DB: db, closeLog: closeLog}, nil
}

// New wraps already-built resources, mainly for tests.
func New(cfg *config.Config, log *slog.Logger, db *gorm.DB) *App {
	return &App{Config: cfg, Log: log, DB: db, closeLog: func() {}}
}

// Migrator returns a migration runner over every registered migration.
// Progress lines go to out.
func (a *App) Migrator(out io.Writer) *migration.Runner {
	return migration.New(a.DB, a.Log, out, migrations.All()...)
}

// Close releases the database and flushes the log sink. The sink is closed
// last so the shutdown records still reach it.
func (a *App) Close() {
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			a.Log.Warn("Closing database failed", "error", err.Error())
		}
	}
	a.closeLog()
}

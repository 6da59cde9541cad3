// Package server runs the HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/shashiranjanraj/itemsapi/internal/kernel"
	"github.com/shashiranjanraj/itemsapi/pkg/app"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish.
const ShutdownTimeout = 10 * time.Second

// Start serves the application on addr (":<APP_PORT>" when empty) until ctx
// is cancelled, then drains in-flight requests. In development pending
// migrations run before the listener opens.
func Start(ctx context.Context, a *app.App, addr string) error {
	if addr == "" {
		addr = ":" + a.Config.Port
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return Serve(ctx, a, ln)
}

// Serve is Start on an existing listener.
func Serve(ctx context.Context, a *app.App, ln net.Listener) error {
	cfg := a.Config
	log := a.Log

	log.Info(fmt.Sprintf("Starting %s...", cfg.AppName), "version", cfg.AppVersion)
	log.Info(fmt.Sprintf("Environment: %s", cfg.Environment))
	log.Info(fmt.Sprintf("Database URL: %s", cfg.SafeDatabaseURL()))

	if cfg.IsDevelopment() {
		if err := a.Migrator(nil).Run(); err != nil {
			_ = ln.Close()
			return fmt.Errorf("server: create schema: %w", err)
		}
		log.Info("Database tables created/verified")
	}

	srv := &http.Server{
		Handler:           kernel.NewHTTP(cfg, log, a.DB).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info(fmt.Sprintf("Listening on %s", ln.Addr()))

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(fmt.Sprintf("Shutting down %s...", cfg.AppName))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown incomplete", "error", err.Error())
		}
		runErr = <-errCh
	case runErr = <-errCh:
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", runErr)
	}
	return nil
}

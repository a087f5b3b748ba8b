package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/router"
	"github.com/aanand-mishra/student-records/internal/logger"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

// runServe follows the startup sequence:
//  1. Load configuration
//  2. Initialise the logger
//  3. Connect to the database and apply migrations
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.Setup(cfg.Env, cfg.Log.Level, cfg.Log.File)
	log.Info().
		Str("env", cfg.Env).
		Str("version", version).
		Msg("starting students-api")

	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise storage")
		return err
	}
	defer store.Close()

	if !cfg.Database.SkipMigrate {
		if err := migrateUp(ctx, store, log); err != nil {
			log.Error().Err(err).Msg("failed to apply migrations")
			return err
		}
	}

	log.Info().Str("driver", cfg.Database.Driver).Msg("storage initialised")

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router.New(store, log),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and reports
	// back on serveErr. http.ErrServerClosed after Shutdown is expected.
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.HTTPServer.Addr).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case err, ok := <-serveErr:
		if ok {
			log.Error().Err(err).Msg("server encountered an error")
			return err
		}
		return nil
	case <-done:
		log.Info().Msg("shutdown signal received, stopping server...")
	case <-ctx.Done():
		log.Info().Msg("context cancelled, stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
		return err
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}

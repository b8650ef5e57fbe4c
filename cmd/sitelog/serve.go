package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sitelog/internal/cli"
	apphttp "sitelog/internal/http"
	"sitelog/internal/log"
)

func serveCmd() *cobra.Command {
	var rpm int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger, err := cli.SetupLogger(cfg.LogLevel, log.ComponentApp, os.Stdout)
			if err != nil {
				logger.Warn("Invalid log level, using info", log.FieldError, err)
			}

			app, err := cli.NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			srv := apphttp.NewServer(":"+cfg.Port, app.Logbook, apphttp.Options{
				ExportFormat:      cfg.ExportFormat,
				RequestsPerMinute: rpm,
				Logger:            logger,
			})

			ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					logger.Error("HTTP server shutdown error", log.FieldError, err)
				}
				if err := app.Close(); err != nil {
					logger.Error("Backend close error", log.FieldError, err)
				}
			})
			app.Caches.StartCleanup(ctx, time.Minute)

			logger.Info("Starting server",
				"addr", srv.Addr,
				"backend", cfg.DataBackend,
				"analysis", cfg.AnalysisEnabled(),
				"amqp", app.Backend.Publisher != nil,
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				_ = app.Close()
				return err
			}
			cli.WaitForShutdown(ctx, done)
			return nil
		},
	}
	cmd.Flags().IntVar(&rpm, "rate-limit", 60, "Mutating requests per minute per client")
	return cmd
}

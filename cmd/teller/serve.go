package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/teller/internal/cli"
	httpAdapter "github.com/aretw0/teller/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves POST /chat, GET /health, GET /user/{userId}/data and
GET /sessions/{sessionId}/history, plus /openapi.yaml and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, logger, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := cfg.HTTPAddr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(app.Metrics),
		}
		if app.Health != nil {
			opts = append(opts, httpAdapter.WithHealthCheck(app.Health))
		}
		handler, err := httpAdapter.NewHandler(app.Assistant, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Teller Server", "address", addr, "store", cfg.Store, "completion", cfg.CompletionEnabled())
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Teller Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8000", "Address to listen on (overrides TELLER_HTTP_ADDR)")
}

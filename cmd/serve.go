package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/imagebatch/internal/handlers"
	"github.com/lehigh-university-libraries/imagebatch/internal/pipeline"
)

func newServeCmd(global *globalFlags) *cobra.Command {
	var (
		settings settingFlags
		port     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the upload interface",
		Long: `Starts the imagebatch web interface.

Upload a table, check the preview, start processing and download images.zip
once every row has been handled. One run is active at a time.`,
		Example: `  # Start server on default port 8888
  imagebatch serve

  # Start server on custom port
  imagebatch serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, &settings)
			if err != nil {
				return err
			}

			p, err := pipeline.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			handler := handlers.New(p, handlers.WithContext(cmd.Context()))

			addr := cfg.Addr
			if cmd.Flags().Changed("port") {
				addr = ":" + port
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				url := "http://localhost" + addr
				if !strings.HasPrefix(addr, ":") {
					url = "http://" + addr
				}
				slog.Info("imagebatch interface available", "addr", addr, "url", url)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				// The active run sees the same cancelled context
				handler.Wait()
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	settings.register(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (overrides addr from config)")

	return cmd
}

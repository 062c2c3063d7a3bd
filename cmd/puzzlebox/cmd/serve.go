package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/puzzlebox/internal/server"
	"github.com/MeKo-Tech/puzzlebox/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		Long: `Start an HTTP server for interactive lid correction.

The server provides the following endpoints:
  GET  /health   - Health check endpoint
  POST /box      - Starting box and display handles for an uploaded image
  POST /correct  - Corrected image (PNG) or plane JSON for an uploaded image
  GET  /session  - WebSocket corner-adjustment session
  GET  /metrics  - Prometheus metrics

Examples:
  puzzlebox serve
  puzzlebox serve --port 8080
  puzzlebox serve --host 0.0.0.0 --port 3000 --detect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()

			host := cfg.Server.Host
			if cmd.Flags().Changed("host") {
				host, _ = cmd.Flags().GetString("host")
			}

			port := cfg.Server.Port
			if cmd.Flags().Changed("port") {
				port, _ = cmd.Flags().GetInt("port")
			}

			corsOrigin := cfg.Server.CORSOrigin
			if cmd.Flags().Changed("cors-origin") {
				corsOrigin, _ = cmd.Flags().GetString("cors-origin")
			}

			maxUploadMB := cfg.Server.MaxUploadMB
			if cmd.Flags().Changed("max-upload-size") {
				maxUploadMB, _ = cmd.Flags().GetInt64("max-upload-size")
			}

			timeout := cfg.Server.TimeoutSec
			if cmd.Flags().Changed("timeout") {
				timeout, _ = cmd.Flags().GetInt("timeout")
			}

			shutdownTimeout := cfg.Server.ShutdownTimeout
			if cmd.Flags().Changed("shutdown-timeout") {
				shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
			}

			applyDetectorFlags(cmd, &cfg)

			if port < 1 || port > 65535 {
				return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
			}
			if maxUploadMB <= 0 {
				return fmt.Errorf("invalid max upload size: %d (must be positive)", maxUploadMB)
			}

			srv, err := server.NewServer(server.Config{
				Host:        host,
				Port:        port,
				CORSOrigin:  corsOrigin,
				MaxUploadMB: maxUploadMB,
				TimeoutSec:  timeout,
				Version:     version.Version,
				Rectify:     cfg.ToRectifyConfig(),
				Detector:    cfg.ToDetectorConfig(),
				Overlay:     cfg.ToOverlayOptions(),
				Tolerance:   cfg.Editor.Tolerance,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}

			mux := http.NewServeMux()
			srv.SetupRoutes(mux)

			httpServer := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", host, port),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       time.Duration(timeout) * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("Starting puzzlebox server", "host", host, "port", port, "detector", cfg.Detector.Enabled)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			ctx := cmd.Context()
			var runErr error
			select {
			case <-ctx.Done():
				slog.Info("Received shutdown signal")
			case err, ok := <-serveErr:
				if ok {
					slog.Error("Server error", "error", err)
					runErr = err
				}
			}

			slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
			if err := srv.Close(); err != nil {
				slog.Error("Server cleanup error", "error", err)
			}
			slog.Info("Graceful shutdown completed")
			return runErr
		},
	}
	cmd.Flags().StringP("host", "H", "localhost", "server host")
	cmd.Flags().IntP("port", "p", 8080, "server port")
	cmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	cmd.Flags().Int64("max-upload-size", 50, "maximum upload size in MB")
	cmd.Flags().Int("timeout", 60, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	addDetectorFlags(cmd)
	return cmd
}

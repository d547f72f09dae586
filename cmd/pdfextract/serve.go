package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/config"
	"github.com/jackzampolin/pdfextract/internal/server"
)

var (
	serveHost   string
	servePort   string
	serveStrict bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pdfextract server",
	Long: `Start the pdfextract HTTP server.

The server exposes the extraction pipeline over HTTP together with a small
upload page. Configuration changes are picked up without a restart.

A missing credential does not stop the server: it starts, /ready reports
not ready and extraction requests return 503 until the configuration is
fixed. Pass --strict to refuse to start instead.

The server provides:
  - /             - Upload page
  - /health       - Basic server health check
  - /ready        - Readiness check (provider configured)
  - /status       - Provider and extraction settings
  - /api/extract  - Multipart PDF upload, returns per-page results
  - /swagger      - API documentation

Examples:
  pdfextract serve                    # Start on server.host:server.port
  pdfextract serve --port 3000        # Start on custom port
  pdfextract serve --host 0.0.0.0     # Bind to all interfaces
  pdfextract serve --strict           # Exit if the provider is not configured`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.Default()

		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		if err := checkServeConfig(mgr.Get(), serveStrict, logger); err != nil {
			return err
		}
		if file := mgr.ConfigFileUsed(); file != "" {
			logger.Info("using config file", "path", file)
		}
		mgr.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: mgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// checkServeConfig validates cfg before the server starts. An invalid
// configuration is fatal only in strict mode.
func checkServeConfig(cfg *config.Config, strict bool, logger *slog.Logger) error {
	err := cfg.Validate()
	if err == nil {
		return nil
	}
	if strict {
		return fmt.Errorf("refusing to start: %w", err)
	}
	logger.Warn("configuration incomplete, extraction disabled until fixed", "error", err)
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port)")
	serveCmd.Flags().BoolVar(&serveStrict, "strict", false, "Exit instead of starting when the configuration is invalid")

	rootCmd.AddCommand(serveCmd)
}

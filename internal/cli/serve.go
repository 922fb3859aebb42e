package cli

import (
	"context"
	"fmt"
	"time"

	"jobscout/internal/common"
	"jobscout/internal/config"
	"jobscout/internal/observability"
	"jobscout/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Job Recommender HTTP API",
		Long: `Start an HTTP server exposing the analysis and job search pipeline.

Available endpoints:
- POST /api/analyze/resume: Analyze an uploaded resume (multipart field "file")
- POST /api/keywords: Extract keywords from {"summary": "..."}
- GET /api/jobs?keywords=...&rows=60: Search job sources
- GET /api/health: Liveness check
- GET /api/health/sources: Job source reachability and provider state

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().String("host", "", "Host to bind to (default from config)")
	cmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	return cmd
}

// applyServeFlags copies explicitly set flags over the loaded configuration.
func applyServeFlags(flags *pflag.FlagSet, cfg *config.ServerConfig) {
	overrides := map[string]*string{
		"port":      &cfg.Port,
		"host":      &cfg.Host,
		"tls-mode":  &cfg.TLS.Mode,
		"cert-file": &cfg.TLS.CertFile,
		"key-file":  &cfg.TLS.KeyFile,
		"ca-file":   &cfg.TLS.CAFile,
	}
	for name, target := range overrides {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt := getRuntime(cmd.Context())
	cfg, logger := rt.cfg, rt.logger

	applyServeFlags(cmd.Flags(), &cfg.Server)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.FromConfig(cfg, Version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	services, err := common.NewServices(cfg, om.GetMetrics(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer closeServices(services, logger)

	return server.NewServer(cfg, Version, services, om, logger).Start(cmd.Context())
}

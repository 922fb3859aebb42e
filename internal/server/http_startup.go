package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := s.setupHTTPServer()

	tlsConfig, err := s.configureTLS()
	if err != nil {
		return err
	}
	httpServer.TLSConfig = tlsConfig

	s.logServerInfo(httpServer)
	return s.startWithGracefulShutdown(ctx, httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

func (s *Server) logServerInfo(server *http.Server) {
	scheme := "http"
	if server.TLSConfig != nil {
		scheme = "https"
	}
	s.Logger.Info("Job Recommender API starting",
		"url", fmt.Sprintf("%s://%s", scheme, server.Addr),
		"version", s.Version,
		"tls_mode", s.TLSConfig.Mode,
		"tls_auto_reload", s.TLSConfig.AutoReload.Enabled,
		"auth_enabled", len(s.APIKeys) > 0,
		"rate_limit_enabled", s.RateLimiter != nil,
		"trusted_proxies", len(s.TrustedProxies),
		"cors_origins", s.CORS.AllowedOrigins,
		"sources", len(s.Services.Aggregator.Sources()),
		"provider_configured", s.Services.Analyzer.Generator() != nil,
		"observability_enabled", s.Observability.Enabled())
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		var err error
		if server.TLSConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanup()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cleanup()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanup stops the certificate watcher and rate limiter.
func (s *Server) cleanup() {
	if s.CertificateManager != nil {
		if err := s.CertificateManager.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate manager")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}

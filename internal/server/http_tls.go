package server

import (
	"crypto/tls"
	"fmt"
)

// configureTLS starts the certificate manager and builds the listener TLS
// config for the configured mode. It returns nil for plain HTTP.
func (s *Server) configureTLS() (*tls.Config, error) {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil, nil
	case "server", "mutual":
	default:
		return nil, fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	certManager := NewCertificateManager(s.TLSConfig, s.Observability.GetMetrics(), s.Logger)
	if err := certManager.Start(); err != nil {
		return nil, fmt.Errorf("failed to start certificate manager: %w", err)
	}
	s.CertificateManager = certManager

	return s.buildTLSConfig(), nil
}

// buildTLSConfig reads certificates through the manager on every handshake so
// reloads apply to new connections without a restart.
func (s *Server) buildTLSConfig() *tls.Config {
	base := &tls.Config{
		MinVersion:     tlsMinVersion(s.TLSConfig.MinVersion),
		GetCertificate: s.CertificateManager.GetCertificate,
	}
	if s.TLSConfig.Mode != "mutual" {
		return base
	}

	clientAuth := clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	base.ClientAuth = clientAuth
	base.ClientCAs = s.CertificateManager.GetCACertPool()
	base.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.GetConfigForClient = nil
		cfg.ClientCAs = s.CertificateManager.GetCACertPool()
		return cfg, nil
	}
	return base
}

func tlsMinVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// clientAuthPolicy maps the configured policy; mutual TLS defaults to require.
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

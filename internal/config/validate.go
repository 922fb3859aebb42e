package config

import (
	"fmt"
	"strings"

	"jobscout/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct constraints, TLS settings and the source list.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, describeValidation(err), err)
	}
	if err := c.ValidateTLSConfig(); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid TLS configuration", err)
	}
	if err := validateSources(c.Jobs.Sources); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid job sources", err)
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
	}
	return "configuration validation failed: " + strings.Join(parts, "; ")
}

func validateSources(sources []SourceConfig) error {
	seen := make(map[string]struct{}, len(sources))
	enabled := 0
	for _, src := range sources {
		key := strings.ToLower(src.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		seen[key] = struct{}{}
		if src.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one job source must be enabled")
	}
	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS
	if err := validateTLSMode(tls); err != nil {
		return err
	}
	return validateTLSVersion(tls)
}

func validateTLSMode(tls TLSConfig) error {
	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		return validateCertAndKey(tls, "server mode")
	case "mutual":
		if err := validateCertAndKey(tls, "mutual mode"); err != nil {
			return err
		}
		if tls.CAFile == "" && tls.CAContent == "" {
			return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or Vault content)")
		}
		return validateClientAuthPolicy(tls)
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
}

func validateCertAndKey(tls TLSConfig, mode string) error {
	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or Vault content)", mode)
	}
	return nil
}

func validateClientAuthPolicy(tls TLSConfig) error {
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

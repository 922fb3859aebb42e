package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"jobscout/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool         `mapstructure:"enabled"`
	Address   string       `mapstructure:"address"`
	Token     string       `mapstructure:"token"`
	TokenFile string       `mapstructure:"tokenFile"`
	Namespace string       `mapstructure:"namespace"`
	Secrets   VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KVv2 read paths)
type VaultSecrets struct {
	// APIKeys holds a comma separated "keys" value for server authentication
	APIKeys string `mapstructure:"apiKeys"`
	// ProviderKey holds the generative provider key under "api_key"
	ProviderKey string `mapstructure:"providerKey"`
	// TLSCerts holds PEM content under "cert", "key" and "ca"
	TLSCerts string `mapstructure:"tlsCerts"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient returns nil without error when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeSecretStore, "failed to create vault client", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeSecretStore, "failed to connect to vault", err).
			WithContext("address", vaultConfig.Address)
	}
	logger.Info("Successfully connected to Vault",
		"address", vaultConfig.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		tokenBytes, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", errors.NewConfigError(errors.ErrCodeSecretStore, "failed to read vault token file", err).
				WithContext("file", cfg.TokenFile)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", errors.NewConfigError(errors.ErrCodeSecretStore, "vault token is required when vault is enabled", nil)
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return parseKVv2(secret.Data, path)
}

func parseKVv2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	vc.logger.Debug("String secret retrieved from Vault", "path", path, "key", key, "masked_value", MaskSecret(strValue))
	return strValue, nil
}

// ApplyVaultSecrets loads the configured secrets from Vault into cfg.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil || client == nil {
		return err
	}
	return applySecrets(client, cfg, logger)
}

func applySecrets(client *VaultClient, cfg *Config, logger *errors.Logger) error {
	paths := cfg.Vault.Secrets

	if paths.APIKeys != "" {
		keys, err := client.GetStringSecret(paths.APIKeys, "keys")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretStore, "failed to load API keys from vault", err)
		}
		if list := splitList(keys); len(list) > 0 {
			cfg.Server.APIKeys = list
			logger.Info("API keys loaded from Vault", "count", len(list))
		}
	}

	if paths.ProviderKey != "" {
		key, err := client.GetStringSecret(paths.ProviderKey, "api_key")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretStore, "failed to load provider key from vault", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			cfg.AI.APIKey = key
			logger.Info("Provider API key loaded from Vault", "provider", cfg.AI.Provider)
		}
	}

	if paths.TLSCerts != "" {
		tlsData, err := client.GetSecretV2(paths.TLSCerts)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretStore, "failed to load TLS certificates from vault", err)
		}
		applyTLSContent(&cfg.Server.TLS, tlsData)
	}
	return nil
}

func applyTLSContent(tls *TLSConfig, secret *VaultSecret) {
	for key, target := range map[string]*string{
		"cert": &tls.CertContent,
		"key":  &tls.KeyContent,
		"ca":   &tls.CAContent,
	} {
		if content, ok := secret.Data[key].(string); ok && content != "" {
			*target = content
		}
	}
}

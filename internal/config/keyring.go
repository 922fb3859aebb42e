package config

import (
	stderrors "errors"
	"fmt"

	"jobscout/internal/errors"

	"github.com/zalando/go-keyring"
)

// KeyringAccount returns the account name the provider key is stored under.
func (c *Config) KeyringAccount() string {
	if c.Keyring.Account != "" {
		return c.Keyring.Account
	}
	return c.AI.Provider
}

// SetProviderKey stores the provider key in the OS keychain.
func SetProviderKey(service, account, key string) error {
	if account == "" {
		return fmt.Errorf("keyring account is required")
	}
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if err := keyring.Set(service, account, key); err != nil {
		return errors.NewConfigError(errors.ErrCodeSecretStore, "failed to store key in keyring", err)
	}
	return nil
}

// GetProviderKey reads the provider key from the OS keychain. A missing entry is not an error.
func GetProviderKey(service, account string) (string, error) {
	if account == "" {
		return "", fmt.Errorf("keyring account is required")
	}
	key, err := keyring.Get(service, account)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.NewConfigError(errors.ErrCodeSecretStore, "failed to read key from keyring", err)
	}
	return key, nil
}

// DeleteProviderKey removes the provider key from the OS keychain.
func DeleteProviderKey(service, account string) error {
	if account == "" {
		return fmt.Errorf("keyring account is required")
	}
	err := keyring.Delete(service, account)
	if err != nil && !stderrors.Is(err, keyring.ErrNotFound) {
		return errors.NewConfigError(errors.ErrCodeSecretStore, "failed to delete key from keyring", err)
	}
	return nil
}

// ResolveSecrets applies Vault secrets, then falls back to the keyring for a
// provider key still missing. Keyring failures only disable the provider.
func ResolveSecrets(cfg *Config, logger *errors.Logger) error {
	if err := ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}
	if cfg.AI.ProviderEnabled() || !cfg.Keyring.Enabled {
		return nil
	}

	key, err := GetProviderKey(cfg.Keyring.Service, cfg.KeyringAccount())
	if err != nil {
		logger.LogWarnError(err, "Keyring lookup failed, generative provider disabled")
		return nil
	}
	if key != "" {
		cfg.AI.APIKey = key
		logger.Info("Provider API key loaded from keyring", "provider", cfg.AI.Provider)
	}
	return nil
}

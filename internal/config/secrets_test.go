package config

import (
	"encoding/json"
	"testing"

	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKVv2(t *testing.T) {
	secret, err := parseKVv2(map[string]any{
		"data":     map[string]any{"api_key": "sk-live"},
		"metadata": map[string]any{"version": json.Number("3")},
	}, "secret/data/jobscout")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)
	assert.Equal(t, "sk-live", secret.Data["api_key"])

	_, err = parseKVv2(map[string]any{"api_key": "flat"}, "secret/jobscout")
	assert.Error(t, err)
}

func TestApplyTLSContent(t *testing.T) {
	var tls TLSConfig
	applyTLSContent(&tls, &VaultSecret{Data: map[string]any{
		"cert": "CERT PEM",
		"key":  "KEY PEM",
		"ca":   "",
	}})

	assert.Equal(t, "CERT PEM", tls.CertContent)
	assert.Equal(t, "KEY PEM", tls.KeyContent)
	assert.Empty(t, tls.CAContent)
}

func TestResolveSecretsFromKeyring(t *testing.T) {
	keyring.MockInit()
	logger := errors.Nop()

	cfg := &Config{
		AI:      AIConfig{Provider: "openrouter"},
		Keyring: KeyringConfig{Enabled: true, Service: "jobscout-test"},
	}

	require.NoError(t, ResolveSecrets(cfg, logger))
	assert.False(t, cfg.AI.ProviderEnabled(), "no key stored yet")

	require.NoError(t, SetProviderKey("jobscout-test", "openrouter", "sk-from-keyring"))
	require.NoError(t, ResolveSecrets(cfg, logger))
	assert.Equal(t, "sk-from-keyring", cfg.AI.APIKey)

	cfg.AI.APIKey = "sk-explicit"
	require.NoError(t, ResolveSecrets(cfg, logger))
	assert.Equal(t, "sk-explicit", cfg.AI.APIKey, "configured key wins over keyring")

	require.NoError(t, DeleteProviderKey("jobscout-test", "openrouter"))
	require.NoError(t, DeleteProviderKey("jobscout-test", "openrouter"), "deleting a missing key is not an error")
	key, err := GetProviderKey("jobscout-test", "openrouter")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestKeyringAccountDefaultsToProvider(t *testing.T) {
	cfg := &Config{AI: AIConfig{Provider: "gemini"}}
	assert.Equal(t, "gemini", cfg.KeyringAccount())

	cfg.Keyring.Account = "work"
	assert.Equal(t, "work", cfg.KeyringAccount())

	assert.Error(t, SetProviderKey("svc", "", "k"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		LegacyOpenRouterKeyEnv, LegacyOpenRouterModelEnv, LegacyOpenRouterSiteEnv,
		LegacyOpenRouterAppEnv, LegacyGeminiKeyEnv, EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_AI_PROVIDER", EnvPrefix + "_SERVER_APIKEYS",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearProviderEnv(t)
	path := writeConfig(t, "app:\n  logLevel: debug\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "openrouter", cfg.AI.Provider)
	assert.Equal(t, DefaultOpenRouterModel, cfg.AI.Model)
	assert.False(t, cfg.AI.ProviderEnabled())
	assert.Equal(t, 40*time.Second, cfg.AI.Timeout)
	assert.EqualValues(t, 420, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.4, cfg.AI.Temperature, 1e-6)
	assert.Equal(t, 0, cfg.AI.MaxRetries)
	assert.Equal(t, 60, cfg.Jobs.DefaultRows)
	assert.Equal(t, []string{"pdf"}, cfg.Extract.AllowedFormats)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.Server.CORS.AllowedOrigins)

	require.Len(t, cfg.Jobs.Sources, 4)
	assert.Equal(t, "WeWorkRemotely", cfg.Jobs.Sources[0].Name)
	assert.Equal(t, "Remotive", cfg.Jobs.Sources[1].Name)
	assert.True(t, cfg.Jobs.Sources[0].Enabled)
	assert.Equal(t, "https://remotive.io/remote-jobs.rss", cfg.Jobs.Sources[1].Options["url"])
}

func TestLoadConfigLegacyEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(LegacyOpenRouterKeyEnv, "  sk-or-test-key  ")
	t.Setenv(LegacyOpenRouterAppEnv, "my-app")
	path := writeConfig(t, "ai:\n  provider: openrouter\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.AI.ProviderEnabled())
	assert.Equal(t, "sk-or-test-key", cfg.AI.APIKey)
	assert.Equal(t, "my-app", cfg.AI.OpenRouter.AppName)
	assert.Equal(t, "http://localhost", cfg.AI.OpenRouter.SiteURL)
}

func TestLoadConfigGeminiModelDefault(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(LegacyGeminiKeyEnv, "gemini-key")
	path := writeConfig(t, "ai:\n  provider: gemini\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiModel, cfg.AI.Model)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
}

func TestLoadConfigPromptFile(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("Summarize this CV as JSON.\n"), 0o600))
	path := writeConfig(t, "ai:\n  promptFile: "+promptPath+"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Summarize this CV as JSON.\n\n", cfg.AI.Instruction)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown provider", content: "ai:\n  provider: cohere\n"},
		{name: "bad log level", content: "app:\n  logLevel: loud\n"},
		{name: "unknown extract format", content: "extract:\n  allowedFormats: [pdf, rtf]\n"},
		{name: "tls without cert", content: "server:\n  tls:\n    mode: server\n"},
		{name: "missing prompt file", content: "ai:\n  promptFile: /nonexistent/prompt.txt\n"},
		{name: "bad trusted proxy", content: "server:\n  trustedProxies: [10.0.0.0/8, not-an-ip]\n"},
		{
			name: "no enabled sources",
			content: "jobs:\n  sources:\n    - name: Only\n      type: feed\n      enabled: false\n" +
				"      options:\n        url: https://example.com/rss\n",
		},
		{
			name: "duplicate source names",
			content: "jobs:\n  sources:\n" +
				"    - {name: A, type: feed, enabled: true, options: {url: https://a.example/rss}}\n" +
				"    - {name: a, type: feed, enabled: true, options: {url: https://b.example/rss}}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSplitListAndMask(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))

	assert.Equal(t, "sk-o****5678", MaskSecret("sk-or-12345678"))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "", MaskSecret(""))
}

func TestServerAPIKeysFromEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvPrefix+"_SERVER_APIKEYS", "key-one, key-two")

	cfg, err := LoadConfig(writeConfig(t, "app:\n  logLevel: info\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Server.APIKeys)
}

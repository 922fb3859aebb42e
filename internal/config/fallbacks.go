package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Environment variables honored for compatibility with the original deployment.
const (
	LegacyOpenRouterKeyEnv   = "OPENROUTER_API_KEY"
	LegacyOpenRouterModelEnv = "OPENROUTER_MODEL"
	LegacyOpenRouterSiteEnv  = "OPENROUTER_SITE_URL"
	LegacyOpenRouterAppEnv   = "OPENROUTER_APP_NAME"
	LegacyGeminiKeyEnv       = "GEMINI_API_KEY"
)

func (c *Config) applyFallbacks() {
	c.applyProviderFallbacks()
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applySourceDefaults()
	c.applyObservabilityDefaults()
}

func (c *Config) applyProviderFallbacks() {
	switch c.AI.Provider {
	case "openrouter":
		if c.AI.APIKey == "" {
			c.AI.APIKey = os.Getenv(LegacyOpenRouterKeyEnv)
		}
		if c.AI.Model == "" {
			c.AI.Model = os.Getenv(LegacyOpenRouterModelEnv)
		}
		if c.AI.Model == "" {
			c.AI.Model = DefaultOpenRouterModel
		}
		if site := os.Getenv(LegacyOpenRouterSiteEnv); site != "" {
			c.AI.OpenRouter.SiteURL = site
		}
		if app := os.Getenv(LegacyOpenRouterAppEnv); app != "" {
			c.AI.OpenRouter.AppName = app
		}
	case "gemini":
		if c.AI.APIKey == "" {
			c.AI.APIKey = os.Getenv(LegacyGeminiKeyEnv)
		}
		if c.AI.Model == "" {
			c.AI.Model = DefaultGeminiModel
		}
	}
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
}

func (c *Config) applyServerAPIKeyFallbacks() {
	c.Server.APIKeys = splitList(strings.Join(c.Server.APIKeys, ","))
	c.Server.TrustedProxies = splitList(strings.Join(c.Server.TrustedProxies, ","))
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitList(apiKeysEnv)
		}
	}
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applySourceDefaults restores the built-in feeds when the list was emptied.
func (c *Config) applySourceDefaults() {
	if len(c.Jobs.Sources) > 0 {
		return
	}
	for _, raw := range DefaultSources {
		opts, _ := raw["options"].(map[string]any)
		c.Jobs.Sources = append(c.Jobs.Sources, SourceConfig{
			Name:    raw["name"].(string),
			Type:    raw["type"].(string),
			Enabled: raw["enabled"].(bool),
			Options: opts,
		})
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(s string) string {
	switch {
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	case len(s) > 0:
		return "****"
	default:
		return ""
	}
}

func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_AI_PROVIDER",
		EnvPrefix + "_AI_MODEL",
		EnvPrefix + "_SERVER_PORT",
		EnvPrefix + "_SERVER_HOST",
		EnvPrefix + "_APP_LOGLEVEL",
		EnvPrefix + "_VAULT_ENABLED",
		LegacyOpenRouterKeyEnv,
		LegacyOpenRouterModelEnv,
		LegacyGeminiKeyEnv,
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(envVar), "key") {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
		hasEnvVars = true
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET*** (Vault or keyring may still provide one)")
	}
	log.Printf("[CONFIG] Server: %s:%s", c.Server.Host, c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	for i, src := range c.Jobs.Sources {
		log.Printf("[CONFIG] Job source %d: %s (%s, enabled=%t)", i+1, src.Name, src.Type, src.Enabled)
	}
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}

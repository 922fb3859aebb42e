package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	AI            AIConfig            `mapstructure:"ai"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Jobs          JobsConfig          `mapstructure:"jobs"`
	Extract       ExtractConfig       `mapstructure:"extract"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Keyring       KeyringConfig       `mapstructure:"keyring"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Events        EventsConfig        `mapstructure:"events"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application settings
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats" validate:"min=1"`
}

// AIConfig holds generative provider configuration. An empty APIKey disables the provider.
type AIConfig struct {
	Provider       string               `mapstructure:"provider" validate:"oneof=openrouter gemini"`
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout" validate:"gt=0"`
	MaxTokens      int32                `mapstructure:"maxTokens" validate:"gt=0"`
	Temperature    float32              `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries     int                  `mapstructure:"maxRetries" validate:"gte=0,lte=5"`
	SystemPrompt   string               `mapstructure:"systemPrompt"`
	PromptFile     string               `mapstructure:"promptFile"`
	OpenRouter     OpenRouterConfig     `mapstructure:"openrouter"`
	Gemini         GeminiConfig         `mapstructure:"gemini"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// Instruction is the prompt prefix loaded from PromptFile, empty when unset.
	Instruction string `mapstructure:"-"`
}

// OpenRouterConfig holds OpenRouter specific request settings
type OpenRouterConfig struct {
	BaseURL string `mapstructure:"baseURL" validate:"omitempty,url"`
	SiteURL string `mapstructure:"siteURL"`
	AppName string `mapstructure:"appName"`
}

// GeminiConfig holds Gemini API settings. An empty BaseURL uses the SDK default.
type GeminiConfig struct {
	BaseURL string `mapstructure:"baseURL" validate:"omitempty,url"`
}

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold" validate:"gte=0,lte=1"`
}

// AnalysisConfig tunes the heuristic analysis
type AnalysisConfig struct {
	KeywordLimit   int      `mapstructure:"keywordLimit" validate:"gt=0"`
	ExtraStopwords []string `mapstructure:"extraStopwords"`
}

// JobsConfig holds job aggregation settings
type JobsConfig struct {
	DefaultRows    int                  `mapstructure:"defaultRows" validate:"gt=0"`
	MaxRows        int                  `mapstructure:"maxRows" validate:"gtefield=DefaultRows"`
	Timeout        time.Duration        `mapstructure:"timeout" validate:"gt=0"`
	UserAgent      string               `mapstructure:"userAgent"`
	HostRate       float64              `mapstructure:"hostRate" validate:"gt=0"`
	HostBurst      int                  `mapstructure:"hostBurst" validate:"gt=0"`
	ProbeTimeout   time.Duration        `mapstructure:"probeTimeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	Sources        []SourceConfig       `mapstructure:"sources" validate:"dive"`
}

// SourceConfig declares one job source. Options are decoded per Type by the jobs package.
type SourceConfig struct {
	Name    string         `mapstructure:"name" validate:"required"`
	Type    string         `mapstructure:"type" validate:"oneof=feed remotive greenhouse"`
	Enabled bool           `mapstructure:"enabled"`
	Options map[string]any `mapstructure:"options"`
}

// ExtractConfig holds resume text extraction settings
type ExtractConfig struct {
	AllowedFormats []string `mapstructure:"allowedFormats" validate:"min=1,dive,oneof=pdf docx txt"`
	MaxFileSize    int64    `mapstructure:"maxFileSize" validate:"gt=0"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string          `mapstructure:"host"`
	Port         string          `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration   `mapstructure:"idleTimeout"`
	TLS          TLSConfig       `mapstructure:"tls"`
	APIKeys      []string        `mapstructure:"apiKeys"`
	CORS         CORSConfig      `mapstructure:"cors"`
	RateLimit    RateLimitConfig `mapstructure:"rateLimit"`

	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the peer address is used.
	TrustedProxies []string `mapstructure:"trustedProxies" validate:"dive,cidr|ip"`
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowedOrigins"`
	AllowCredentials bool     `mapstructure:"allowCredentials"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Mode             string           `mapstructure:"mode"`
	CertFile         string           `mapstructure:"certFile"`
	KeyFile          string           `mapstructure:"keyFile"`
	CAFile           string           `mapstructure:"caFile"`
	MinVersion       string           `mapstructure:"minVersion"`
	ClientAuthPolicy string           `mapstructure:"clientAuthPolicy"`
	AutoReload       AutoReloadConfig `mapstructure:"autoReload"`

	// Content loaded from Vault, takes precedence over files
	CertContent string `mapstructure:"-"`
	KeyContent  string `mapstructure:"-"`
	CAContent   string `mapstructure:"-"`
}

// AutoReloadConfig controls certificate hot reloading
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// KeyringConfig controls the OS keychain fallback for the provider key
type KeyringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Service string `mapstructure:"service"`
	Account string `mapstructure:"account"`
}

// StorageConfig holds object storage settings for s3:// resume references
type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	UsePathStyle    bool   `mapstructure:"usePathStyle"`
}

// EventsConfig holds domain event publishing settings
type EventsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routingKey"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	PrettyPrint     bool             `mapstructure:"prettyPrint"`
	SampleRate      float64          `mapstructure:"sampleRate" validate:"gte=0,lte=1"`
	MetricsInterval time.Duration    `mapstructure:"metricsInterval"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// ProviderEnabled reports whether a generative provider credential is present.
func (c *AIConfig) ProviderEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// LoadConfig loads configuration from defaults, config file and environment.
// An explicit configFile bypasses the search paths.
func LoadConfig(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", EnvPrefix)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/jobscout/")
		v.AddConfigPath("$HOME/.jobscout")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.loadPromptFile(); err != nil {
		return nil, fmt.Errorf("failed to load prompt file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

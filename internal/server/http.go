package server

import (
	"net/netip"
	"time"

	"jobscout/internal/common"
	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/observability"

	"github.com/go-playground/validator/v10"
)

// multipartOverhead is added to the upload limit to leave room for multipart framing.
const multipartOverhead int64 = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64
	MaxRows        int
	DefaultRows    int
	ProbeTimeout   time.Duration
	CORS           config.CORSConfig

	RateLimit      *config.RateLimitConfig
	RateLimiter    *RateLimiter
	TrustedProxies []netip.Prefix

	Services      *common.Services
	Observability *observability.ObservabilityManager
	Logger        *errors.Logger

	validate *validator.Validate
}

// NewServer builds a Server from the application configuration. om may be nil.
func NewServer(cfg *config.Config, version string, services *common.Services, om *observability.ObservabilityManager, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.Nop()
	}

	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	rateLimit := cfg.Server.RateLimit
	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: services.Extractor.MaxFileSize() + multipartOverhead,
		MaxRows:        cfg.Jobs.MaxRows,
		DefaultRows:    cfg.Jobs.DefaultRows,
		ProbeTimeout:   cfg.Jobs.ProbeTimeout,
		CORS:           cfg.Server.CORS,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		TrustedProxies: parseTrustedProxies(cfg.Server.TrustedProxies, logger),
		Services:       services,
		Observability:  om,
		Logger:         logger,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

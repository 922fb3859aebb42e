package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"jobscout/internal/errors"

	"golang.org/x/time/rate"
)

const limiterIdleEviction = 10 * time.Minute

// RateLimiter hands out one token bucket per client key (IP or API key).
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
}

// NewRateLimiter creates a limiter allowing requestsPerMin per key with the given burst.
// Idle keys are evicted in the background until Close is called.
func NewRateLimiter(requestsPerMin, burst int, logger *errors.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = errors.Nop()
	}

	m := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0),
		burst:    burst,
		done:     make(chan struct{}),
		logger:   logger,
	}

	go m.cleanupRoutine(limiterIdleEviction)
	return m
}

func (m *RateLimiter) limiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = limiter
	}
	m.lastSeen[key] = time.Now()
	return limiter
}

// Allow reports whether a request for key may proceed. It never blocks.
func (m *RateLimiter) Allow(key string) bool {
	return m.limiter(key).Allow()
}

// Stats returns the number of tracked keys and the configured limits.
func (m *RateLimiter) Stats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.limiters),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *RateLimiter) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(interval)
		case <-m.done:
			return
		}
	}
}

func (m *RateLimiter) cleanup(evictionAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, lastSeen := range m.lastSeen {
		if now.Sub(lastSeen) > evictionAge {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}

	m.logger.Debug("Rate limiter cleanup completed", "remaining_limiters", len(m.limiters))
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (m *RateLimiter) Close() {
	m.once.Do(func() { close(m.done) })
}

// rateLimitMiddleware rejects requests over the per-key budget with 429.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		key, limitType := s.getRateLimitKey(r)
		if key == "" {
			next(w, r)
			return
		}

		if !s.RateLimiter.Allow(key) {
			s.Logger.Info("Rate limit exceeded",
				"limit_type", limitType,
				"endpoint", r.URL.Path,
				"client_ip", s.clientIP(r))
			s.Observability.GetMetrics().RecordRateLimitHit(r.Context(), limitType)
			w.Header().Set("Retry-After", "60")
			writeErrorResponse(w, "Rate limit exceeded", "RATE_LIMITED", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

// getRateLimitKey picks the bucket key for a request, preferring the API key.
func (s *Server) getRateLimitKey(r *http.Request) (key, limitType string) {
	if s.RateLimit.ByAPIKey {
		if apiKey := apiKeyFrom(r); apiKey != "" {
			return "api:" + apiKey, "api_key"
		}
	}
	if s.RateLimit.ByIP {
		return "ip:" + s.clientIP(r), "ip"
	}
	return "", ""
}

// clientIP returns the peer address. Forwarding headers count only when the
// peer is a trusted proxy; X-Forwarded-For is read right to left and the first
// address outside the trusted set is the client.
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !s.isTrustedProxy(peer) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				continue
			}
			if !s.isTrustedProxy(addr.String()) {
				return addr.String()
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}
	return peer
}

func (s *Server) isTrustedProxy(ip string) bool {
	if len(s.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range s.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// parseTrustedProxies turns IPs and CIDRs into prefixes, skipping invalid entries.
func parseTrustedProxies(entries []string, logger *errors.Logger) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				logger.Warn("Ignoring invalid trusted proxy", "entry", entry, "error", err.Error())
				continue
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "entry", entry, "error", err.Error())
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

package breaker

import (
	stderrors "errors"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Settings configures a breaker. A zero value or Enabled=false yields a pass-through breaker.
type Settings struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// FromConfig converts the configuration block into Settings.
func FromConfig(cfg config.CircuitBreakerConfig) Settings {
	return Settings{
		Enabled:          cfg.Enabled,
		MaxRequests:      cfg.MaxRequests,
		Interval:         cfg.Interval,
		Timeout:          cfg.Timeout,
		MinRequests:      cfg.MinRequests,
		FailureThreshold: cfg.FailureThreshold,
	}
}

// Breaker wraps calls returning T with the circuit breaker pattern.
// A nil *Breaker executes calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New returns nil when the breaker is disabled.
func New[T any](name string, s Settings, logger *errors.Logger) *Breaker[T] {
	if !s.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= s.MinRequests && failureRatio >= s.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", s.MaxRequests,
				"failure_threshold", s.FailureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn under breaker protection. Open-state rejections surface as
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns breaker statistics for health reporting.
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed. Disabled breakers are always healthy.
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

// IsOpenError reports whether err is a breaker rejection rather than a call failure.
func IsOpenError(err error) bool {
	return stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests)
}

package resilience

import "time"

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 2
)

// CircuitBreakerConfig tunes the breaker guarding one outbound dependency.
type CircuitBreakerConfig struct {
	Enabled bool
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// WithDefaults fills unset or out of range limits. Enabled is kept as given.
func (c CircuitBreakerConfig) WithDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaultHalfOpenMaxReq
	}
	return c
}

package config

import (
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitConfig declares per-minute request and token budgets.
//
// These budgets have no enforcement point inside this core: the API gateway
// in front of the service consumes them. Limiter exists so the gateway can
// build its limiter from the same configuration source.
type RateLimitConfig struct {
	MaxRequestsPerMinute int `mapstructure:"max_requests_per_minute"`
	MaxTokensPerMinute   int `mapstructure:"max_tokens_per_minute"`
}

func (r RateLimitConfig) validate() error {
	if r.MaxRequestsPerMinute < 0 {
		return fmt.Errorf("%w: max_requests_per_minute %d is negative", ErrInvalidRateLimit, r.MaxRequestsPerMinute)
	}
	if r.MaxTokensPerMinute < 0 {
		return fmt.Errorf("%w: max_tokens_per_minute %d is negative", ErrInvalidRateLimit, r.MaxTokensPerMinute)
	}
	return nil
}

// Limiter builds a request limiter from the declared budget.
// Returns nil when the budget is zero (unlimited).
func (r RateLimitConfig) Limiter() *rate.Limiter {
	if r.MaxRequestsPerMinute <= 0 {
		return nil
	}
	perSecond := rate.Limit(float64(r.MaxRequestsPerMinute) / 60.0)
	return rate.NewLimiter(perSecond, r.MaxRequestsPerMinute)
}

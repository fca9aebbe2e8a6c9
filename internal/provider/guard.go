package provider

import (
	"context"

	"github.com/leadlab/enrich-cli/internal/ratelimit"
	"github.com/leadlab/enrich-cli/internal/resilience"
)

// Guard wraps every outbound provider call with rate limiting, retry, and a
// per-provider circuit breaker. All provider implementations share one Guard
// so the global token bucket really is global.
type Guard struct {
	limiter  *ratelimit.Limiter
	breakers *resilience.ProviderBreakers
	retry    resilience.RetryConfig
}

// NewGuard builds a Guard from the shared limiter and policy configs.
func NewGuard(limiter *ratelimit.Limiter, retry resilience.RetryConfig, circuit resilience.CircuitBreakerConfig) *Guard {
	circuit.ShouldTrip = resilience.IsTransient
	return &Guard{
		limiter:  limiter,
		breakers: resilience.NewProviderBreakers(circuit),
		retry:    retry,
	}
}

// BreakerStates snapshots the circuit state per provider for diagnostics.
func (g *Guard) BreakerStates() map[string]resilience.CircuitState {
	return g.breakers.States()
}

// call acquires both rate-limit tokens for domain, then runs fn under the
// provider's breaker with transient-only retries. Each retry attempt
// re-acquires tokens so backoff does not hold capacity.
func call[T any](ctx context.Context, g *Guard, provider, op, domain string, fn func(ctx context.Context) (T, error)) (T, error) {
	retry := g.retry
	retry.OnRetry = resilience.RetryLogger(provider, op)
	breaker := g.breakers.Get(provider)

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (T, error) {
		var zero T
		if err := g.limiter.AcquireBoth(ctx, domain); err != nil {
			return zero, err
		}
		return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (T, error) {
			val, err := fn(ctx)
			return val, classify(err)
		})
	})
}

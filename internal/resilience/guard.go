package resilience

import (
	"context"

	"go.uber.org/zap"
)

// Guard combines a retry policy with a circuit breaker for one backend.
// Retries happen inside the breaker so a single logical call counts once.
type Guard struct {
	name    string
	retry   RetryConfig
	breaker *CircuitBreaker
}

// NewGuard creates a Guard named after the backend it protects.
func NewGuard(name string, retry RetryConfig, breaker CircuitBreakerConfig) *Guard {
	if breaker.OnStateChange == nil {
		breaker.OnStateChange = func(from, to CircuitState) {
			zap.L().Warn("resilience: circuit state change",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}
	return &Guard{name: name, retry: retry, breaker: NewCircuitBreaker(breaker)}
}

// Name returns the backend name.
func (g *Guard) Name() string { return g.name }

// Breaker exposes the underlying circuit breaker.
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }

// Call runs fn for operation through the breaker and retry policy.
func Call[T any](ctx context.Context, g *Guard, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	retry := g.retry
	if retry.OnRetry == nil {
		retry.OnRetry = RetryLogger(g.name, operation)
	}
	return ExecuteVal(ctx, g.breaker, func(ctx context.Context) (T, error) {
		return DoVal(ctx, retry, fn)
	})
}

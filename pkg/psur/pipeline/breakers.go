package pipeline

import (
	"time"

	"github.com/sony/gobreaker"
)

// breakerNames are the five external-collaborator suspension points the
// runtime wraps with a circuit breaker: pack loading, LLM enhancement,
// chart rendering, DOCX rendering, and ZIP packaging. Each breaker trips
// independently so a degraded LLM provider does not also block loader
// retries on the next run.
const (
	breakerLoader = "loader"
	breakerLLM    = "llm"
	breakerChart  = "chart"
	breakerDocx   = "docx"
	breakerZip    = "zip"
)

func newBreakers() map[string]*gobreaker.CircuitBreaker[any] {
	names := []string{breakerLoader, breakerLLM, breakerChart, breakerDocx, breakerZip}
	breakers := make(map[string]*gobreaker.CircuitBreaker[any], len(names))
	for _, name := range names {
		breakers[name] = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    0,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
	}
	return breakers
}

// callThrough executes fn behind the named breaker, type-asserting the
// generic any result back to T. Every external-collaborator call in this
// package goes through here instead of calling the collaborator directly.
func callThrough[T any](r *Runtime, breaker string, fn func() (T, error)) (T, error) {
	var zero T
	out, err := r.breakers[breaker].Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// Package fallback implements the ordered-strategies pattern used across
// the pipeline: snapshot endpoints, stream path candidates, and delivery
// mechanisms all try an ordered list and stop at the first success.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// Strategy is one candidate in an ordered chain.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// ErrExhausted is returned when every strategy in a chain failed.
var ErrExhausted = errors.New("all strategies exhausted")

// First runs strategies in order and returns the first successful value
// along with the winning strategy's name. When every strategy fails the
// joined per-strategy errors are wrapped with ErrExhausted. Context
// cancellation aborts the chain immediately.
func First[T any](ctx context.Context, strategies []Strategy[T]) (T, string, error) {
	var zero T
	if len(strategies) == 0 {
		return zero, "", ErrExhausted
	}

	failures := make([]error, 0, len(strategies))
	for _, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		value, err := strategy.Run(ctx)
		if err == nil {
			return value, strategy.Name, nil
		}
		failures = append(failures, fmt.Errorf("%s: %w", strategy.Name, err))
	}
	return zero, "", fmt.Errorf("%w: %w", ErrExhausted, errors.Join(failures...))
}

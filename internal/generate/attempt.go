package generate

import (
	"context"
	"log/slog"

	"github.com/immuse/tourwizard/internal/metrics"
)

// Outcome is the result of Attempt. When Fallback is set, Value is the
// fallback exactly as given and Err holds the primary failure.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

// Attempt runs primary and returns its value, or fallback unchanged if
// primary fails. Partial primary results are discarded.
func Attempt[T any](ctx context.Context, kind string, primary func(context.Context) (T, error), fallback T) Outcome[T] {
	v, err := primary(ctx)
	if err == nil {
		return Outcome[T]{Value: v}
	}

	slog.Warn("generation failed, serving fallback", "kind", kind, "error", err)
	metrics.GenerationFallbacks.WithLabelValues(kind).Inc()
	return Outcome[T]{Value: fallback, Fallback: true, Err: err}
}

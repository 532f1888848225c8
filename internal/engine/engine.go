// Package engine integrates the external inference engine that owns the
// model weights and all GPU/CPU resource management. The service only
// speaks to it through the narrow Engine surface; batching, KV caching
// and memory discipline are the engine's contract, not ours.
package engine

import (
	"context"

	"diagnosisd/pkg/types"
)

// Engine abstracts the inference backend used by the extraction service.
type Engine interface {
	// Generate produces raw completion text for the given prompt.
	// Implementations must return when the context is canceled.
	Generate(ctx context.Context, prompt string, params types.SamplingParams) (string, error)
	// Ready reports whether the engine is reachable and serving.
	Ready(ctx context.Context) bool
	// Close releases any resources held by the adapter.
	Close() error
}

package llmclient

import (
	"context"
	"time"

	agentmemory "github.com/vinayprograms/agentkit/memory"
)

// EmbedderAdapter narrows an agentkit embedding provider down to the
// single-method Embed contract internal/rag and internal/memory
// each declare independently, so neither package needs to import
// agentkit directly.
type EmbedderAdapter struct {
	provider agentmemory.EmbeddingProvider
	timeout  time.Duration
}

// WrapEmbedder returns nil if provider is nil, preserving the
// "no embedder configured" case the memories module relies on to
// pick its full-text fallback. timeout bounds each Embed call; a
// non-positive value disables the deadline.
func WrapEmbedder(provider agentmemory.EmbeddingProvider, timeout time.Duration) *EmbedderAdapter {
	if provider == nil {
		return nil
	}
	return &EmbedderAdapter{provider: provider, timeout: timeout}
}

func (e *EmbedderAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.provider.Embed(ctx, texts)
}

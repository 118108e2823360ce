package llmclient

import (
	"context"
	"testing"
	"time"

	agentmemory "github.com/vinayprograms/agentkit/memory"
)

type slowEmbedProvider struct{}

func (slowEmbedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWrapEmbedderNilProviderReturnsNil(t *testing.T) {
	if WrapEmbedder(nil, time.Second) != nil {
		t.Error("expected a nil provider to produce a nil adapter")
	}
}

func TestEmbedAppliesTimeout(t *testing.T) {
	adapter := WrapEmbedder(slowEmbedProvider{}, 10*time.Millisecond)
	_, err := adapter.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

type fakeEmbedProvider struct{}

func (fakeEmbedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func TestEmbedZeroTimeoutDisablesDeadline(t *testing.T) {
	adapter := WrapEmbedder(fakeEmbedProvider{}, 0)
	vecs, err := adapter.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Errorf("got %d vectors, want 2", len(vecs))
	}
}

var _ agentmemory.EmbeddingProvider = fakeEmbedProvider{}

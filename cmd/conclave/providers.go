package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vinayprograms/agentkit/llm"
	agentmemory "github.com/vinayprograms/agentkit/memory"

	"github.com/vinayprograms/conclave/internal/llmclient"
	"github.com/vinayprograms/conclave/internal/opconfig"
	"github.com/vinayprograms/conclave/internal/rag"
)

// createLLMProvider builds the chat provider the role engine's
// llmclient.Client wraps, preferring the task document's
// llm_model/llm_provider override over the operator config.
func createLLMProvider(cfg *opconfig.Config, taskModel, taskProvider string) (llm.Provider, error) {
	model := taskModel
	if model == "" {
		model = cfg.LLM.Model
	}
	provider := taskProvider
	if provider == "" {
		provider = cfg.LLM.Provider
	}
	if provider == "" {
		provider = llm.InferProviderFromModel(model)
	}
	if provider == "" && model == "" {
		return nil, fmt.Errorf("no LLM model configured (set parameters.llm_model in the task document or [llm] in the operator config)")
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		apiKey = os.Getenv(opconfig.DefaultAPIKeyEnv(provider))
	}

	return llm.NewProvider(llm.ProviderConfig{
		Provider:   provider,
		Model:      model,
		APIKey:     apiKey,
		BaseURL:    cfg.LLM.BaseURL,
		RetryConfig: llm.RetryConfig{MaxRetries: llmclient.MaxRetries},
	})
}

// createEmbeddingProvider mirrors the per-provider-string dispatch
// the teacher's cmd/agent/providers.go uses, narrowed to the
// providers the retrieval pack actually exercises. "none"/"" (with no
// model configured) disables embedding: the rag module then has
// nothing to embed with and the memories module falls back to
// substring search.
func createEmbeddingProvider(cfg *opconfig.Config, taskModel string) (agentmemory.EmbeddingProvider, error) {
	model := taskModel
	if model == "" {
		model = cfg.Embedding.Model
	}
	provider := cfg.Embedding.Provider
	if provider == "none" || provider == "disabled" || (provider == "" && model == "") {
		return nil, nil
	}
	if provider == "" {
		provider = "openai"
	}

	apiKey := cfg.EmbeddingAPIKey()
	if apiKey == "" {
		apiKey = os.Getenv(opconfig.DefaultAPIKeyEnv(provider))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key found for embedding provider %q", provider)
	}

	switch provider {
	case "openai":
		return agentmemory.NewOpenAIEmbedder(agentmemory.OpenAIConfig{APIKey: apiKey, Model: model, BaseURL: cfg.Embedding.BaseURL}), nil
	case "google":
		return agentmemory.NewGoogleEmbedder(agentmemory.GoogleConfig{APIKey: apiKey, Model: model, BaseURL: cfg.Embedding.BaseURL}), nil
	case "mistral":
		return agentmemory.NewMistralEmbedder(agentmemory.MistralConfig{APIKey: apiKey, Model: model, BaseURL: cfg.Embedding.BaseURL}), nil
	case "cohere":
		return agentmemory.NewCohereEmbedder(agentmemory.CohereConfig{APIKey: apiKey, Model: model, BaseURL: cfg.Embedding.BaseURL}), nil
	case "voyage":
		return agentmemory.NewVoyageEmbedder(agentmemory.VoyageConfig{APIKey: apiKey, Model: model, BaseURL: cfg.Embedding.BaseURL}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: openai, google, mistral, cohere, voyage, none)", provider)
	}
}

// wrapEmbedder narrows provider to rag.Embedder, taking care not to
// let a typed-nil *llmclient.EmbedderAdapter leak into the interface:
// WrapEmbedder returns a concrete pointer, so the nil check must
// happen here, before the assignment to the interface-typed return,
// rather than on the interface value itself.
func wrapEmbedder(provider agentmemory.EmbeddingProvider, timeout time.Duration) rag.Embedder {
	adapter := llmclient.WrapEmbedder(provider, timeout)
	if adapter == nil {
		return nil
	}
	return adapter
}

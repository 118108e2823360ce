// Package opconfig loads the operator-level TOML configuration: LLM
// provider credentials, embedding provider settings, event-sink
// wiring, and default turn/revision limits. This is distinct from
// internal/taskdoc's per-task YAML document — opconfig holds the
// knobs an operator sets once per deployment, taskdoc holds the
// knobs a task author sets per task.
package opconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the root operator configuration.
type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Event     EventConfig     `toml:"event"`
	Engine    EngineConfig    `toml:"engine"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// LLMConfig selects and configures the default LLM provider.
type LLMConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	APIKeyEnv  string `toml:"api_key_env"`
	BaseURL    string `toml:"base_url"`
	MaxRetries int    `toml:"max_retries"`
}

// EmbeddingConfig selects and configures the embedding provider used
// by the RAG and memories modules. Provider "none" disables both,
// falling back to substring search for memories and an error for
// rag (the rag module requires an embedder).
type EmbeddingConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	BaseURL   string `toml:"base_url"`
}

// EventConfig wires the event sink.
type EventConfig struct {
	Sink       string `toml:"sink"` // "noop", "file", "nats"
	FilePath   string `toml:"file_path"`
	NATSURL    string `toml:"nats_url"`
	NATSSubject string `toml:"nats_subject"`
}

// EngineConfig holds the default bounds a task document may override.
type EngineConfig struct {
	DefaultTurnLimit      int `toml:"default_turn_limit"`
	DefaultRevisionBudget int `toml:"default_revision_budget"`
	ShTimeoutSeconds      int `toml:"sh_timeout_seconds"`
	LLMTimeoutSeconds     int `toml:"llm_timeout_seconds"`
	EmbedTimeoutSeconds   int `toml:"embed_timeout_seconds"`
}

// TelemetryConfig mirrors the teacher's OTel wiring.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Protocol string `toml:"protocol"`
	Insecure bool   `toml:"insecure"`
}

// New returns a config populated with the same defaults spec.md
// assigns: turn limit 20, revision budget 5, sh run timeout 60s, LLM
// call timeout 120s, embedding timeout 30s.
func New() *Config {
	return &Config{
		Event: EventConfig{Sink: "noop"},
		Engine: EngineConfig{
			DefaultTurnLimit:      20,
			DefaultRevisionBudget: 5,
			ShTimeoutSeconds:      60,
			LLMTimeoutSeconds:     120,
			EmbedTimeoutSeconds:   30,
		},
		Telemetry: TelemetryConfig{Protocol: "noop"},
	}
}

// LoadFile loads operator configuration from a TOML file, starting
// from New()'s defaults so an omitted section keeps its default.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing operator config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads conclave.toml from the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "conclave.toml"))
}

// APIKey resolves the LLM provider API key from its configured
// environment variable, falling back to the provider's conventional
// default variable name.
func (c *Config) APIKey() string {
	envVar := c.LLM.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.LLM.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// EmbeddingAPIKey resolves the embedding provider's API key the same way.
func (c *Config) EmbeddingAPIKey() string {
	envVar := c.Embedding.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.Embedding.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the conventional environment variable
// name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "cohere":
		return "COHERE_API_KEY"
	case "voyage":
		return "VOYAGE_API_KEY"
	default:
		return ""
	}
}

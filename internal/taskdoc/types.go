// Package taskdoc loads and validates the declarative task definition
// document described in spec §6: top-level keys name, description,
// version, context, agents, modules, workflow, parameters, output.
package taskdoc

// ContextKind is the closed set of ways a context alias can be sourced.
type ContextKind string

const (
	ContextText      ContextKind = "text"
	ContextFile      ContextKind = "file"
	ContextUserInput ContextKind = "user_input"
)

// Context is one named piece of input data substituted into role
// prompts via {alias} placeholders.
type Context struct {
	Alias   string      `yaml:"alias"`
	Kind    ContextKind `yaml:"kind"`
	Content string      `yaml:"content,omitempty"`
	Prompt  string      `yaml:"prompt,omitempty"` // used when Kind == user_input
}

// Agent is one role's declaration: its prompt templates and, for the
// formatter, an optional JSON-Schema descriptor validated against its
// final output (SPEC_FULL.md §C.2).
type Agent struct {
	Role         string `yaml:"role"`
	Strategy     string `yaml:"strategy,omitempty"`
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`
	Schema       string `yaml:"schema,omitempty"`

	Line int `yaml:"-"`
}

// Module is one declared module with its per-module configuration.
// The only built-in that currently reads Config is "sh" (the
// allowed_commands whitelist).
type Module struct {
	Name    string                 `yaml:"name"`
	Version string                 `yaml:"version,omitempty"`
	Config  map[string]interface{} `yaml:"config,omitempty"`

	Line int `yaml:"-"`
}

// Outcome is the closed set of role outcomes that drive workflow
// transitions (spec §4.5/§4.6).
type Outcome string

const (
	OutcomeProposalGenerated Outcome = "proposal_generated"
	OutcomeRevisionRequested Outcome = "revision_requested"
	OutcomeApproved          Outcome = "approved"
	OutcomeValidated         Outcome = "validated"
	OutcomeExported          Outcome = "exported"
	OutcomeError             Outcome = "error"
)

// WorkflowEdge is one (from, to, condition) triple.
type WorkflowEdge struct {
	From      string  `yaml:"from"`
	To        string  `yaml:"to"`
	Condition Outcome `yaml:"condition"`

	Line int `yaml:"-"`
}

// Parameters carries the runtime knobs spec §6 lists: llm_model,
// llm_provider, export_conversation, and the nested embedder config.
type Parameters struct {
	LLMModel           string         `yaml:"llm_model"`
	LLMProvider        string         `yaml:"llm_provider"`
	ExportConversation bool           `yaml:"export_conversation"`
	Embedder           EmbedderConfig `yaml:"embedder"`
	RevisionBudget     int            `yaml:"revision_budget,omitempty"`   // default 5
	TurnLimit          int            `yaml:"turn_limit,omitempty"`        // default 20
}

// EmbedderConfig names the embedding model used by the RAG and
// memories modules. The embedder implementation itself is external
// per spec §1.
type EmbedderConfig struct {
	Model string `yaml:"model"`
}

// OutputFormat is the closed set of artifact formats.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputPlain    OutputFormat = "plain"
)

// Output describes where and how the final artifact is written.
type Output struct {
	Format OutputFormat `yaml:"format"`
	File   string       `yaml:"file"`
}

// Task is the full parsed task document.
type Task struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Version     string         `yaml:"version,omitempty"`
	Context     []Context      `yaml:"context,omitempty"`
	Agents      []Agent        `yaml:"agents"`
	Modules     []Module       `yaml:"modules,omitempty"`
	Workflow    []WorkflowEdge `yaml:"workflow"`
	Parameters  Parameters     `yaml:"parameters"`
	Output      Output         `yaml:"output"`

	// BaseDir is the directory the task document was loaded from,
	// used to resolve relative `file` context paths. Not part of the
	// document itself.
	BaseDir string `yaml:"-"`
}

// AgentByRole returns the declared agent for a role, if any.
func (t *Task) AgentByRole(role string) (*Agent, bool) {
	for i := range t.Agents {
		if t.Agents[i].Role == role {
			return &t.Agents[i], true
		}
	}
	return nil, false
}

// HasModule reports whether a module name is declared on this task.
func (t *Task) HasModule(name string) bool {
	for _, m := range t.Modules {
		if m.Name == name {
			return true
		}
	}
	return false
}

// ModuleConfig returns the declared config map for a module, or nil.
func (t *Task) ModuleConfig(name string) map[string]interface{} {
	for _, m := range t.Modules {
		if m.Name == name {
			return m.Config
		}
	}
	return nil
}

// Package errors defines the error taxonomy the engine recovers from or
// terminates on: configuration errors (fatal at load), module errors
// (recovered locally by injection into the conversation), workflow errors
// (fatal to the task), and transport errors (retried before becoming fatal).
package errors

import "fmt"

// ConfigKind enumerates the closed set of configuration-time failures.
type ConfigKind string

const (
	ConfigMalformedDocument ConfigKind = "MalformedDocument"
	ConfigUnknownModule     ConfigKind = "UnknownModule"
	ConfigAmbiguousWorkflow ConfigKind = "AmbiguousWorkflow"
)

// ConfigError is fatal at task-load time.
type ConfigError struct {
	Kind   ConfigKind
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration:%s %s", e.Kind, e.Detail)
}

// ModuleKind enumerates the closed set of module-execution failures.
// These are never fatal: the role engine renders them back into the
// conversation as MODULE_ERROR lines so the model can adapt.
type ModuleKind string

const (
	ModuleDisallowedCommand  ModuleKind = "DisallowedCommand"
	ModuleUnsupportedEncode  ModuleKind = "UnsupportedEncoding"
	ModulePathNotFound       ModuleKind = "PathNotFound"
	ModuleTimeout            ModuleKind = "ModuleTimeout"
	ModuleTransportFailure   ModuleKind = "TransportFailure"
	ModuleParseError         ModuleKind = "ParseError"
	ModuleUnknownAction      ModuleKind = "UnknownAction"
	ModuleUnknownModule      ModuleKind = "UnknownModule"
)

// ModuleError carries a kind and a short human-readable detail. Its
// rendering (`MODULE_ERROR: <kind> <detail>`) is what the role engine
// injects into the conversation; see internal/role.
type ModuleError struct {
	Kind   ModuleKind
	Detail string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Detail)
}

// NewModuleError builds a ModuleError with a formatted detail.
func NewModuleError(kind ModuleKind, format string, args ...interface{}) *ModuleError {
	return &ModuleError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WorkflowKind enumerates the closed set of workflow-level failures.
// These are fatal to the task and surface as a terminal event.
type WorkflowKind string

const (
	WorkflowStuck                WorkflowKind = "WorkflowStuck"
	WorkflowTurnLimitExceeded    WorkflowKind = "TurnLimitExceeded"
	WorkflowRevisionLimitExceed  WorkflowKind = "RevisionLimitExceeded"
	WorkflowFormatterSchemaBad   WorkflowKind = "FormatterSchemaViolation"
)

// WorkflowError is fatal to the enclosing task.
type WorkflowError struct {
	Kind   WorkflowKind
	Detail string
}

func (e *WorkflowError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// TransportError wraps a failure talking to the LLM or embedding
// provider. The caller retries with backoff up to a small bound before
// treating it as fatal; see internal/llmclient.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Cancelled signals cooperative termination. It is not treated as an
// error by callers that check for it explicitly — the task manager
// emits error:Cancelled but the cancellation itself is expected control
// flow, not a defect.
type Cancelled struct{}

func (Cancelled) Error() string { return "cancelled" }

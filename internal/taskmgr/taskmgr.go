// Package taskmgr drives one task's full lifecycle: resolving
// context aliases, constructing the module registry, running the
// workflow engine to completion, and persisting the final output.
package taskmgr

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vinayprograms/conclave/internal/conversation"
	taskerrors "github.com/vinayprograms/conclave/internal/errors"
	"github.com/vinayprograms/conclave/internal/event"
	"github.com/vinayprograms/conclave/internal/memory"
	"github.com/vinayprograms/conclave/internal/modcache"
	"github.com/vinayprograms/conclave/internal/module"
	"github.com/vinayprograms/conclave/internal/rag"
	"github.com/vinayprograms/conclave/internal/role"
	"github.com/vinayprograms/conclave/internal/taskdoc"
	"github.com/vinayprograms/conclave/internal/workflow"
)

// startRole is always "proposer" per spec §4.6: the initial role is
// the from-node with no incoming to=proposer predecessor, which in
// every declared workflow is the proposer itself.
const startRole = "proposer"

// Prompter resolves a user_input context alias by asking an operator
// for text, e.g. reading a line from stdin. The task manager never
// touches a terminal directly.
type Prompter interface {
	Prompt(alias, prompt string) (string, error)
}

// Manager runs one task document to completion.
type Manager struct {
	Task      *taskdoc.Task
	Sender    role.Sender
	Registry  *module.Registry
	Sink      event.Sink
	Prompter  Prompter
	Redact    bool // redact MODULE_RESULT/MODULE_ERROR bodies in the exported conversation only
	ShTimeout time.Duration
	Validator role.SchemaValidator

	// ProposalHistory and FeedbackHistory are the task's append-only
	// runtime state per spec §3: every proposal_generated outcome
	// appends its extracted proposal text, every revision_requested
	// outcome appends its extracted feedback text. Run resets both at
	// the start of each run, so a Manager reused across RunMany calls
	// doesn't carry a prior task's history into the next one.
	ProposalHistory []string
	FeedbackHistory []string

	// Closers are invoked, in reverse registration order, when the
	// task finishes regardless of outcome (e.g. memory store Close).
	closers []func() error
}

// New builds a Manager from a loaded task and the already-constructed
// module registry (the registry's composition — which built-ins are
// wired with which backing stores — is the caller's job; see
// BuildRegistry for the default construction used by cmd/conclave).
func New(task *taskdoc.Task, sender role.Sender, registry *module.Registry, sink event.Sink, prompter Prompter) *Manager {
	if sink == nil {
		sink = event.NoopSink{}
	}
	return &Manager{Task: task, Sender: sender, Registry: registry, Sink: sink, Prompter: prompter}
}

// RegistryOptions configures the built-in module wiring BuildRegistry
// performs.
type RegistryOptions struct {
	Embedder rag.Embedder // also satisfies internal/memory.Embedder's narrower Embed signature
}

// BuildRegistry constructs the module registry and its backing RAG
// and memories stores from the task's declared modules and sh
// allow-list config, closing over opts.Embedder for the rag/memories
// stores that need one. It returns the registry plus a close func
// for the memories store (the rag store has no resources to release).
func BuildRegistry(task *taskdoc.Task, opts RegistryOptions) (*module.Registry, func() error, error) {
	var mods []module.Module
	var closeMemories func() error = func() error { return nil }

	for _, m := range task.Modules {
		switch m.Name {
		case "fs":
			mods = append(mods, module.NewFSModule())
		case "sh":
			mods = append(mods, module.NewShModule(shAllowList(m.Config)))
		case "rag":
			store := rag.NewInMemoryStore(ragEmbedder(opts.Embedder))
			mods = append(mods, module.NewRAGModule(store))
		case "memories":
			store, err := memory.New(memoriesEmbedder(opts.Embedder))
			if err != nil {
				return nil, nil, fmt.Errorf("building memories store: %w", err)
			}
			mods = append(mods, module.NewMemoriesModule(store))
			closeMemories = store.Close
		case "web":
			w, err := module.NewWebModule()
			if err != nil {
				return nil, nil, fmt.Errorf("building web module: %w", err)
			}
			mods = append(mods, w)
		default:
			return nil, nil, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigUnknownModule,
				Detail: fmt.Sprintf("module %q is not a built-in", m.Name),
			}
		}
	}
	return module.NewRegistry(mods...), closeMemories, nil
}

// ragEmbedder returns nil as a rag.Embedder interface value when e is
// nil, rather than letting a typed-nil *EmbedderAdapter leak through
// — assigning a nil concrete pointer directly into the interface
// return would make the interface itself compare non-nil, which the
// rag module's search action relies on not happening when no embedder
// is configured.
func ragEmbedder(e rag.Embedder) rag.Embedder {
	if e == nil {
		return nil
	}
	return e
}

// memoriesEmbedder re-narrows the same embedder to internal/memory's
// independently-declared Embedder interface, with the same nil-guard
// as ragEmbedder.
func memoriesEmbedder(e rag.Embedder) memory.Embedder {
	if e == nil {
		return nil
	}
	return e
}

func shAllowList(cfg map[string]interface{}) []string {
	raw, ok := cfg["allowed_commands"]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// AddCloser registers a cleanup function run (in reverse order) when
// Run returns, regardless of outcome.
func (mgr *Manager) AddCloser(fn func() error) {
	mgr.closers = append(mgr.closers, fn)
}

// Run resolves context, then drives the workflow to "completed" or a
// fatal error. taskID identifies this run in emitted events; callers
// resuming a prior run (per spec §6's --resume) pass that run's ID so
// events correlate across the resumed attempt.
func (mgr *Manager) Run(ctx context.Context, taskID string) error {
	defer mgr.runClosers()

	mgr.ProposalHistory = nil
	mgr.FeedbackHistory = nil

	mgr.emit(taskID, "", event.TypeTaskStarted, mgr.Task.Name)

	aliases, err := mgr.resolveContext()
	if err != nil {
		mgr.emit(taskID, "", event.TypeTaskFailed, err.Error())
		return err
	}

	graph, err := workflow.Build(mgr.Task.Workflow)
	if err != nil {
		mgr.emit(taskID, "", event.TypeTaskFailed, err.Error())
		return err
	}
	budget := workflow.NewRevisionBudget(mgr.Task.Parameters.RevisionBudget)

	engine := &role.Engine{
		Sender:    mgr.Sender,
		Registry:  mgr.Registry,
		Cache:     modcache.New(),
		Sink:      mgr.Sink,
		Validator: mgr.Validator,
		TaskID:    taskID,
		TurnLimit: mgr.Task.Parameters.TurnLimit,
		ShTimeout: mgr.ShTimeout,
	}

	conv := conversation.New()

	var (
		currentRole    = startRole
		currentProposal string
		lastFeedback    string
		seedExtra       string
		finalOutput     string
	)

	for {
		if err := ctx.Err(); err != nil {
			mgr.emit(taskID, currentRole, event.TypeCancelled, "")
			return &taskerrors.Cancelled{}
		}

		agent, ok := mgr.Task.AgentByRole(currentRole)
		if !ok {
			err := &taskerrors.WorkflowError{
				Kind:   taskerrors.WorkflowStuck,
				Detail: fmt.Sprintf("no agent declared for role %q", currentRole),
			}
			mgr.emit(taskID, currentRole, event.TypeTaskFailed, err.Error())
			return err
		}

		if currentRole == startRole && seedExtra != "" {
			if err := budget.Consume(); err != nil {
				mgr.emit(taskID, currentRole, event.TypeTaskFailed, err.Error())
				return err
			}
		}

		result, err := engine.Activate(ctx, role.Activation{
			Task: mgr.Task, Agent: agent, Conv: conv, Aliases: aliases, SeedExtra: seedExtra,
		})
		seedExtra = ""
		if err != nil {
			mgr.emit(taskID, currentRole, event.TypeTaskFailed, err.Error())
			return err
		}

		switch result.Outcome {
		case taskdoc.OutcomeProposalGenerated:
			currentProposal = role.ExtractProposal(result.Output)
			mgr.ProposalHistory = append(mgr.ProposalHistory, currentProposal)
		case taskdoc.OutcomeRevisionRequested:
			lastFeedback = role.ExtractFeedback(result.Output)
			if lastFeedback == "" {
				lastFeedback = result.Output
			}
			mgr.FeedbackHistory = append(mgr.FeedbackHistory, lastFeedback)
			mgr.emit(taskID, currentRole, event.TypeRevision, lastFeedback)
		case taskdoc.OutcomeExported:
			finalOutput = result.Output
		}

		next, err := graph.Next(currentRole, result.Outcome)
		if err != nil {
			mgr.emit(taskID, currentRole, event.TypeTaskFailed, err.Error())
			return err
		}

		if next == workflow.Completed {
			if err := mgr.writeOutput(finalOutput); err != nil {
				mgr.emit(taskID, currentRole, event.TypeTaskFailed, err.Error())
				return err
			}
			if mgr.Task.Parameters.ExportConversation {
				if err := mgr.exportConversation(conv); err != nil {
					mgr.emit(taskID, currentRole, event.TypeTaskFailed, err.Error())
					return err
				}
			}
			mgr.emit(taskID, currentRole, event.TypeTaskCompleted, mgr.Task.Name)
			return nil
		}

		if next == startRole && result.Outcome == taskdoc.OutcomeRevisionRequested {
			seedExtra = fmt.Sprintf("Prior proposal:\n%s\n\nFeedback:\n%s", currentProposal, lastFeedback)
		}

		currentRole = next
	}
}

// PendingRun pairs a Manager with the taskID its run should be
// correlated under, for RunMany.
type PendingRun struct {
	Manager *Manager
	TaskID  string
}

// RunMany drives several independent tasks to completion
// concurrently, per spec §5: tasks share no mutable state except the
// event sink and the process-wide LLM/embedding client, so running
// them in parallel is safe even though each one's own role/workflow
// loop stays single-threaded. Unlike errgroup.WithContext's usual
// fail-fast cancellation, one task's failure must not cancel its
// unrelated siblings, so every task runs against ctx unmodified and
// RunMany reports every error it saw, not just the first.
func RunMany(ctx context.Context, runs []PendingRun) []error {
	var g errgroup.Group
	errs := make([]error, len(runs))
	for i, r := range runs {
		i, r := i, r
		g.Go(func() error {
			errs[i] = r.Manager.Run(ctx, r.TaskID)
			return nil
		})
	}
	g.Wait()
	return errs
}

func (mgr *Manager) runClosers() {
	for i := len(mgr.closers) - 1; i >= 0; i-- {
		mgr.closers[i]()
	}
}

func (mgr *Manager) emit(taskID, role string, typ event.Type, content string) {
	mgr.Sink.Emit(event.New(taskID, role, typ, content, time.Now()))
}

// resolveContext materializes every declared context alias: text
// verbatim, file read from disk relative to the task's base
// directory, and user_input via the configured Prompter.
func (mgr *Manager) resolveContext() (map[string]string, error) {
	aliases := make(map[string]string, len(mgr.Task.Context))
	for _, c := range mgr.Task.Context {
		switch c.Kind {
		case taskdoc.ContextText:
			aliases[c.Alias] = c.Content
		case taskdoc.ContextFile:
			path := c.Content
			if !filepath.IsAbs(path) {
				path = filepath.Join(mgr.Task.BaseDir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, &taskerrors.ConfigError{
					Kind:   taskerrors.ConfigMalformedDocument,
					Detail: fmt.Sprintf("reading context file %s for alias %q: %v", path, c.Alias, err),
				}
			}
			aliases[c.Alias] = string(data)
		case taskdoc.ContextUserInput:
			if mgr.Prompter == nil {
				return nil, &taskerrors.ConfigError{
					Kind:   taskerrors.ConfigMalformedDocument,
					Detail: fmt.Sprintf("context %q requires user_input but no Prompter is configured", c.Alias),
				}
			}
			text, err := mgr.Prompter.Prompt(c.Alias, c.Prompt)
			if err != nil {
				return nil, fmt.Errorf("prompting for context %q: %w", c.Alias, err)
			}
			aliases[c.Alias] = text
		}
	}
	return aliases, nil
}

func (mgr *Manager) writeOutput(content string) error {
	if mgr.Task.Output.File == "" {
		return nil
	}
	path := mgr.Task.Output.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(mgr.Task.BaseDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// exportConversation serializes the full transcript as JSON lines
// alongside the output file, named <output.file>.conversation.jsonl.
func (mgr *Manager) exportConversation(conv *conversation.Conversation) error {
	if mgr.Task.Output.File == "" {
		return nil
	}
	path := mgr.Task.Output.File + ".conversation.jsonl"
	if !filepath.IsAbs(path) {
		path = filepath.Join(mgr.Task.BaseDir, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating conversation export %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, m := range conv.Snapshot() {
		if mgr.Redact {
			m.Content = redactModuleBody(m.Content)
		}
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// redactModuleBody blanks the body of a MODULE_RESULT/MODULE_ERROR
// message, keeping its header line intact so the shape of the
// exchange is still legible in the exported artifact.
func redactModuleBody(content string) string {
	for _, prefix := range []string{"MODULE_RESULT:", "MODULE_ERROR:"} {
		if strings.HasPrefix(content, prefix) {
			nl := strings.IndexByte(content, '\n')
			if nl < 0 {
				return prefix + " [redacted]"
			}
			return content[:nl] + "\n[redacted]"
		}
	}
	return content
}

// StdinPrompter asks for a context's value by printing its prompt to
// stderr and reading a line from stdin. This is the default
// cmd/conclave wires when a task declares a user_input context.
type StdinPrompter struct {
	Reader *bufio.Reader
}

func NewStdinPrompter() *StdinPrompter {
	return &StdinPrompter{Reader: bufio.NewReader(os.Stdin)}
}

func (p *StdinPrompter) Prompt(alias, prompt string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	line, err := p.Reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

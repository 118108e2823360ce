package role

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vinayprograms/conclave/internal/conversation"
	taskerrors "github.com/vinayprograms/conclave/internal/errors"
	"github.com/vinayprograms/conclave/internal/event"
	"github.com/vinayprograms/conclave/internal/modcache"
	"github.com/vinayprograms/conclave/internal/module"
	"github.com/vinayprograms/conclave/internal/modrequest"
	"github.com/vinayprograms/conclave/internal/taskdoc"
)

// Sender sends a conversation to the LLM and returns the assistant's
// reply. internal/llmclient.Client satisfies this.
type Sender interface {
	Send(ctx context.Context, conv *conversation.Conversation) (string, error)
}

// SchemaValidator checks a formatter's final output against its
// declared JSON Schema, if any.
type SchemaValidator interface {
	Validate(schema, output string) (bool, error)
}

// memorySystemPrompt is injected into every role's system prompt
// when the task declares the "memories" module, so the model knows
// it has a note store available even if the role's own prompt
// doesn't mention it.
const memorySystemPrompt = "You have access to a persistent memory store via MODULE_REQUEST: memories insert <text> and MODULE_REQUEST: memories recall <query>. Use it to record findings you want available in later turns."

// Engine runs one role activation's turn loop.
type Engine struct {
	Sender    Sender
	Registry  *module.Registry
	Cache     *modcache.Cache
	Sink      event.Sink
	Validator SchemaValidator
	TaskID    string
	TurnLimit int

	// ShTimeout bounds a "sh run" dispatch per spec §5. A non-positive
	// value disables the deadline. Other modules dispatch with ctx
	// unmodified.
	ShTimeout time.Duration
}

// Activation is the inputs to one role activation.
type Activation struct {
	Task      *taskdoc.Task
	Agent     *taskdoc.Agent
	Conv      *conversation.Conversation
	Aliases   map[string]string
	SeedExtra string // appended to the user prompt, e.g. prior proposal + feedback on revision re-entry
}

// Result is what one role activation produced.
type Result struct {
	Outcome taskdoc.Outcome
	Output  string
}

// Activate runs the full turn loop for one role activation per
// spec §4.5: reset the system prompt, seed the user prompt, then
// alternate LLM calls with module dispatch until the assistant
// emits no more requests or the turn-loop bound is hit.
func (e *Engine) Activate(ctx context.Context, act Activation) (Result, error) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "role."+act.Agent.Role)
	span.SetAttributes(attribute.String("role.name", act.Agent.Role))
	defer span.End()

	systemPrompt := substitute(act.Agent.SystemPrompt, act.Aliases)
	if act.Task.HasModule("memories") {
		systemPrompt = systemPrompt + "\n\n" + memorySystemPrompt
	}
	act.Conv.ReplaceSystem(systemPrompt)

	userPrompt := substitute(act.Agent.UserPrompt, act.Aliases)
	if act.SeedExtra != "" {
		userPrompt = userPrompt + "\n\n" + act.SeedExtra
	}
	act.Conv.Append(conversation.User, userPrompt)

	e.emit(act.Task, act.Agent.Role, event.TypeRoleActivated, act.Agent.Role)

	limit := e.TurnLimit
	if limit <= 0 {
		limit = 20
	}

	var finalText string
	for cycle := 0; ; cycle++ {
		if cycle >= limit {
			return Result{Outcome: taskdoc.OutcomeError}, &taskerrors.WorkflowError{
				Kind:   taskerrors.WorkflowTurnLimitExceeded,
				Detail: fmt.Sprintf("role %q exceeded %d module-request cycles", act.Agent.Role, limit),
			}
		}

		reply, err := e.Sender.Send(ctx, act.Conv)
		if err != nil {
			span.RecordError(err)
			return Result{}, err
		}
		act.Conv.Append(conversation.Assistant, reply)

		parsed := modrequest.Parse(reply)

		for _, pe := range parsed.ParseErrors {
			feedback := fmt.Sprintf("MODULE_ERROR: %s", (&taskerrors.ModuleError{Kind: taskerrors.ModuleParseError, Detail: pe.Detail}).Error())
			act.Conv.Append(conversation.User, feedback)
		}

		if len(parsed.Requests) == 0 {
			finalText = parsed.ResidualText
			break
		}

		for _, req := range parsed.Requests {
			e.dispatchOne(ctx, act, req)
		}
	}

	outcome := detectOutcome(act.Agent.Role, finalText)

	if act.Agent.Role == "formatter" && outcome == taskdoc.OutcomeExported && act.Agent.Schema != "" && e.Validator != nil {
		ok, err := e.Validator.Validate(act.Agent.Schema, finalText)
		if err != nil || !ok {
			return Result{Outcome: taskdoc.OutcomeError}, &taskerrors.WorkflowError{
				Kind:   taskerrors.WorkflowFormatterSchemaBad,
				Detail: fmt.Sprintf("formatter output did not validate against declared schema: %v", err),
			}
		}
	}

	e.emit(act.Task, act.Agent.Role, event.Type(outcome), string(outcome))
	return Result{Outcome: outcome, Output: finalText}, nil
}

func (e *Engine) dispatchOne(ctx context.Context, act Activation, req modrequest.Request) {
	key := modcache.Key{TaskID: e.TaskID, Module: req.Module, Action: req.Action, Args: req.Args}

	e.emit(act.Task, act.Agent.Role, event.TypeModuleRequested,
		fmt.Sprintf("%s %s %s", req.Module, req.Action, strings.Join(req.Args, " ")))

	result, isErr, ok := e.Cache.Get(key)
	if !ok {
		dispatchCtx := ctx
		if req.Module == "sh" && e.ShTimeout > 0 {
			var cancel context.CancelFunc
			dispatchCtx, cancel = context.WithTimeout(ctx, e.ShTimeout)
			defer cancel()
		}
		res, err := e.Registry.Dispatch(dispatchCtx, req.Module, req.Action, req.Args)
		if err != nil {
			result = err.Error()
			isErr = true
		} else {
			result = res
			isErr = false
		}
		e.Cache.Put(key, result, isErr)
	}

	var body string
	if isErr {
		body = "MODULE_ERROR: " + result
		e.emit(act.Task, act.Agent.Role, event.TypeModuleError, body)
	} else {
		body = result
		e.emit(act.Task, act.Agent.Role, event.TypeModuleResult, truncate(body, 35000))
	}

	message := fmt.Sprintf("MODULE_RESULT: %s %s\n%s", req.Module, req.Action, truncate(body, 35000))
	act.Conv.Append(conversation.User, message)
}

// truncate mirrors the oversized-result guard: a result body past
// the threshold is cut with a hint to use the RAG module instead of
// flooding the conversation with raw content.
func truncate(body string, max int) string {
	if len(body) <= max {
		return body
	}
	return body[:max] + fmt.Sprintf("\n...[truncated %d characters; consider using the RAG module to index the content instead]", len(body)-max)
}

func (e *Engine) emit(task *taskdoc.Task, role string, typ event.Type, content string) {
	if e.Sink == nil {
		return
	}
	e.Sink.Emit(event.New(e.TaskID, role, typ, content, time.Now()))
}

// substitute replaces {alias} placeholders with their resolved
// values. Unresolved aliases are left verbatim rather than erroring,
// since a role prompt that doesn't reference every declared context
// alias is normal.
func substitute(prompt string, aliases map[string]string) string {
	out := prompt
	for alias, value := range aliases {
		out = strings.ReplaceAll(out, "{"+alias+"}", value)
	}
	return out
}

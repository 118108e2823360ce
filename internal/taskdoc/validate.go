package taskdoc

import (
	"errors"
	"fmt"
	"strings"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// builtinModules is the closed set of module names the registry knows
// how to construct (internal/module). Validation rejects anything
// else at load time rather than failing later at dispatch time.
var builtinModules = map[string]bool{
	"fs":        true,
	"sh":        true,
	"rag":       true,
	"memories":  true,
	"web":       true,
}

// completedSentinel is the terminal workflow node every edge chain
// must eventually be able to reach.
const completedSentinel = "completed"

// Validate checks a parsed Task for the load-time failures spec §7/§8
// name: missing required fields, workflow edges referencing
// undeclared roles, ambiguous (from, condition) pairs, and modules
// that aren't in the closed built-in set. It collects every problem
// it finds rather than stopping at the first, joining them into one
// error.
func Validate(t *Task) error {
	var errs []error

	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, &taskerrors.ConfigError{
			Kind:   taskerrors.ConfigMalformedDocument,
			Detail: "task is missing required field 'name'",
		})
	}
	if len(t.Agents) == 0 {
		errs = append(errs, &taskerrors.ConfigError{
			Kind:   taskerrors.ConfigMalformedDocument,
			Detail: "task declares no agents",
		})
	}
	if len(t.Workflow) == 0 {
		errs = append(errs, &taskerrors.ConfigError{
			Kind:   taskerrors.ConfigMalformedDocument,
			Detail: "task declares no workflow edges",
		})
	}

	definedRoles := make(map[string]bool, len(t.Agents))
	for _, a := range t.Agents {
		if strings.TrimSpace(a.Role) == "" {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: "agent entry is missing required field 'role'",
			})
			continue
		}
		if definedRoles[a.Role] {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: fmt.Sprintf("role %q is declared more than once", a.Role),
			})
		}
		definedRoles[a.Role] = true
	}

	for _, m := range t.Modules {
		if !builtinModules[m.Name] {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigUnknownModule,
				Detail: fmt.Sprintf("module %q is not a recognized built-in", m.Name),
			})
		}
	}

	// (from, condition) must be unambiguous: two edges leaving the
	// same role on the same outcome would leave the engine unable to
	// pick a next role deterministically (spec §8 Scenario 6).
	seen := make(map[string]string) // "from|condition" -> to
	for _, e := range t.Workflow {
		if e.From == "" || e.To == "" || e.Condition == "" {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: "workflow edge is missing from/to/condition",
			})
			continue
		}
		if !definedRoles[e.From] {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: fmt.Sprintf("workflow edge references undeclared role %q as 'from'", e.From),
			})
		}
		if e.To != completedSentinel && !definedRoles[e.To] {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: fmt.Sprintf("workflow edge references undeclared role %q as 'to'", e.To),
			})
		}
		key := e.From + "|" + string(e.Condition)
		if prevTo, ok := seen[key]; ok && prevTo != e.To {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigAmbiguousWorkflow,
				Detail: fmt.Sprintf("role %q has two edges for outcome %q: one to %q, one to %q", e.From, e.Condition, prevTo, e.To),
			})
		}
		seen[key] = e.To
	}

	// Every context alias referenced by a prompt via {alias} should
	// resolve to a declared context entry; we can only check the
	// reverse cheaply here (duplicate aliases), full substitution
	// validation happens at role-activation time since prompts are
	// free text.
	aliasSeen := make(map[string]bool, len(t.Context))
	for _, c := range t.Context {
		if c.Alias == "" {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: "context entry is missing required field 'alias'",
			})
			continue
		}
		if aliasSeen[c.Alias] {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: fmt.Sprintf("context alias %q is declared more than once", c.Alias),
			})
		}
		aliasSeen[c.Alias] = true
		if c.Kind == ContextUserInput && c.Prompt == "" {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: fmt.Sprintf("context alias %q has kind user_input but no prompt", c.Alias),
			})
		}
		if c.Kind == ContextFile && c.Content == "" {
			errs = append(errs, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigMalformedDocument,
				Detail: fmt.Sprintf("context alias %q has kind file but no path in 'content'", c.Alias),
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Package module implements the narrow, uniform module contract
// (execute(action, args) -> result|error) and the closed set of
// built-in modules: fs, sh, rag, memories, web.
package module

import (
	"context"
	"fmt"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// Module is the capability abstraction every built-in implements.
// Dispatch is driven entirely off Name() and Execute(); the registry
// never type-switches on a concrete module type.
type Module interface {
	Name() string
	Execute(ctx context.Context, action string, args []string) (string, error)
}

// Registry is the name-keyed mapping built at task load from the
// task document's declared modules.
type Registry struct {
	modules map[string]Module
}

// NewRegistry builds a registry from the given modules, keyed by
// their own Name().
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{modules: make(map[string]Module, len(modules))}
	for _, m := range modules {
		r.modules[m.Name()] = m
	}
	return r
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Names lists every registered module name, used to build the
// unknown-module feedback text.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	return names
}

// Dispatch resolves name and runs action against it. A module not
// found in the registry, or an unsupported action, comes back as a
// ModuleError rather than a panic or a generic error — the caller
// injects its message verbatim into the conversation.
func (r *Registry) Dispatch(ctx context.Context, name, action string, args []string) (string, error) {
	m, ok := r.Get(name)
	if !ok {
		return "", taskerrors.NewModuleError(taskerrors.ModuleUnknownModule,
			"%q is not a registered module; available modules: %s", name, joinNames(r.Names()))
	}
	result, err := m.Execute(ctx, action, args)
	if err != nil {
		return "", err
	}
	return result, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	if out == "" {
		return "(none registered)"
	}
	return out
}

// unknownAction builds the standard ModuleError for an action a
// module doesn't implement, listing what it does support.
func unknownAction(moduleName, action string, supported []string) error {
	return taskerrors.NewModuleError(taskerrors.ModuleUnknownAction,
		"%s has no action %q; supported actions: %s", moduleName, action, fmt.Sprintf("%v", supported))
}

package module

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// ShModule executes shell commands restricted to an allow-list. An
// empty allow-list means every command is permitted — tasks that
// want unrestricted shell access declare `allowed_commands: []` (or
// omit it) explicitly, rather than this module defaulting open.
type ShModule struct {
	allowedCommands map[string]bool
	allowAll        bool
}

// NewShModule builds a ShModule from a task's allowed_commands
// config list.
func NewShModule(allowedCommands []string) *ShModule {
	m := &ShModule{allowedCommands: make(map[string]bool, len(allowedCommands))}
	if len(allowedCommands) == 0 {
		m.allowAll = true
		return m
	}
	for _, c := range allowedCommands {
		m.allowedCommands[c] = true
	}
	return m
}

func (m *ShModule) Name() string { return "sh" }

func (m *ShModule) isAllowed(cmd string) bool {
	return m.allowAll || m.allowedCommands[cmd]
}

func (m *ShModule) Execute(ctx context.Context, action string, args []string) (string, error) {
	if action != "run" {
		return "", unknownAction("sh", action, []string{"run"})
	}
	if len(args) == 0 {
		return "", missingArg("sh", "run", "<command> [args...]")
	}

	command := args[0]
	cmdArgs := args[1:]

	if !m.isAllowed(command) {
		return "", taskerrors.NewModuleError(taskerrors.ModuleDisallowedCommand, "%s", command)
	}

	cmd := exec.CommandContext(ctx, command, cmdArgs...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", taskerrors.NewModuleError(taskerrors.ModuleTimeout, "%s: %v", command, ctx.Err())
		}
		// A non-zero exit is a result, not a module failure: the
		// command ran, it just didn't succeed. Only a spawn/IO error
		// (the command couldn't even start) is a real ModuleError.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "%s: %v", command, err)
		}
		prefix := fmt.Sprintf("exit code: %d\n", exitErr.ExitCode())
		return prefix + formatShOutput(stdout.String(), stderr.String()), nil
	}

	return formatShOutput(stdout.String(), stderr.String()), nil
}

func formatShOutput(stdout, stderr string) string {
	if stderr == "" {
		return stdout
	}
	return "STDOUT:\n" + stdout + "\n\nSTDERR:\n" + stderr
}

package module

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vinayprograms/conclave/internal/memory"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// MemoriesModule exposes insert(text) and recall(query, k?) over a
// memory.Store.
type MemoriesModule struct {
	store memory.Store
}

func NewMemoriesModule(store memory.Store) *MemoriesModule {
	return &MemoriesModule{store: store}
}

func (m *MemoriesModule) Name() string { return "memories" }

func (m *MemoriesModule) Execute(ctx context.Context, action string, args []string) (string, error) {
	switch action {
	case "insert":
		if len(args) < 1 {
			return "", missingArg("memories", "insert", "text")
		}
		text := strings.Join(args, " ")
		note, err := m.store.Insert(ctx, text)
		if err != nil {
			return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "memories insert: %v", err)
		}
		return fmt.Sprintf("Remembered (id=%s)", note.ID), nil
	case "recall":
		if len(args) < 1 {
			return "", missingArg("memories", "recall", "query")
		}
		query, k := splitRecallArgs(args)
		notes, err := m.store.Recall(ctx, query, k)
		if err != nil {
			return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "memories recall: %v", err)
		}
		if len(notes) == 0 {
			return "No matching memories found", nil
		}
		var lines []string
		for _, n := range notes {
			lines = append(lines, n.Text)
		}
		return strings.Join(lines, "\n"), nil
	default:
		return "", unknownAction("memories", action, []string{"insert", "recall"})
	}
}

// splitRecallArgs treats a trailing "k=<n>" argument as the result
// limit and everything else as the query text.
func splitRecallArgs(args []string) (query string, k int) {
	k = 5
	var queryParts []string
	for _, a := range args {
		if key, value, ok := strings.Cut(a, "="); ok && key == "k" {
			if n, err := strconv.Atoi(value); err == nil {
				k = n
			}
			continue
		}
		queryParts = append(queryParts, a)
	}
	return strings.Join(queryParts, " "), k
}

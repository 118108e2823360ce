// Package workflow resolves role transitions over the declared
// (from, to, condition) edges and tracks the revision budget that
// bounds how many times the proposer may be re-entered.
package workflow

import (
	"fmt"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
	"github.com/vinayprograms/conclave/internal/taskdoc"
)

// Completed is the terminal sentinel node.
const Completed = "completed"

// Graph is the resolved edge set for one task.
type Graph struct {
	edges map[string]map[taskdoc.Outcome]string // from -> condition -> to
}

// Build indexes a task's declared edges for O(1) lookup. Ambiguity
// is caught at load time by taskdoc.Validate, so Build assumes the
// edge set is already well-formed; it still guards defensively
// since a hand-built Task (as in tests) might skip that step.
func Build(edges []taskdoc.WorkflowEdge) (*Graph, error) {
	g := &Graph{edges: make(map[string]map[taskdoc.Outcome]string)}
	for _, e := range edges {
		if g.edges[e.From] == nil {
			g.edges[e.From] = make(map[taskdoc.Outcome]string)
		}
		if existing, ok := g.edges[e.From][e.Condition]; ok && existing != e.To {
			return nil, &taskerrors.ConfigError{
				Kind:   taskerrors.ConfigAmbiguousWorkflow,
				Detail: fmt.Sprintf("role %q has two edges for outcome %q", e.From, e.Condition),
			}
		}
		g.edges[e.From][e.Condition] = e.To
	}
	return g, nil
}

// Next resolves the unique edge matching (fromRole, outcome). No
// matching edge is a fatal WorkflowStuck per spec §4.6.
func (g *Graph) Next(fromRole string, outcome taskdoc.Outcome) (string, error) {
	byOutcome, ok := g.edges[fromRole]
	if !ok {
		return "", &taskerrors.WorkflowError{
			Kind:   taskerrors.WorkflowStuck,
			Detail: fmt.Sprintf("role %q has no declared outgoing edges", fromRole),
		}
	}
	to, ok := byOutcome[outcome]
	if !ok {
		return "", &taskerrors.WorkflowError{
			Kind:   taskerrors.WorkflowStuck,
			Detail: fmt.Sprintf("role %q has no edge for outcome %q", fromRole, outcome),
		}
	}
	return to, nil
}

// RevisionBudget tracks how many times the proposer may still be
// re-entered. It is a bounded counter, not recursion, so the state
// machine trivially terminates.
type RevisionBudget struct {
	remaining int
}

// NewRevisionBudget returns a budget that allows n re-entries.
func NewRevisionBudget(n int) *RevisionBudget {
	if n <= 0 {
		n = 5
	}
	return &RevisionBudget{remaining: n}
}

// Consume decrements the budget. It returns a fatal
// RevisionLimitExceeded error once the budget is exhausted; the
// caller should terminate the task rather than re-entering the
// proposer.
func (b *RevisionBudget) Consume() error {
	if b.remaining <= 0 {
		return &taskerrors.WorkflowError{Kind: taskerrors.WorkflowRevisionLimitExceed}
	}
	b.remaining--
	return nil
}

// Remaining reports how many re-entries are left.
func (b *RevisionBudget) Remaining() int {
	return b.remaining
}

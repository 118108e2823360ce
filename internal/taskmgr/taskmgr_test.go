package taskmgr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vinayprograms/conclave/internal/conversation"
	"github.com/vinayprograms/conclave/internal/event"
	"github.com/vinayprograms/conclave/internal/module"
	"github.com/vinayprograms/conclave/internal/taskdoc"
)

// scriptedSender returns queued replies in order, one per Send call,
// mirroring internal/role's test fake.
type scriptedSender struct {
	replies []string
	i       int
}

func (s *scriptedSender) Send(ctx context.Context, conv *conversation.Conversation) (string, error) {
	if s.i >= len(s.replies) {
		return "", nil
	}
	r := s.replies[s.i]
	s.i++
	return r, nil
}

func fullWorkflowTask(outFile string) *taskdoc.Task {
	return &taskdoc.Task{
		Name: "find-secret",
		Agents: []taskdoc.Agent{
			{Role: "proposer", SystemPrompt: "propose", UserPrompt: "find it"},
			{Role: "reviewer", SystemPrompt: "review", UserPrompt: "review it"},
			{Role: "validator", SystemPrompt: "validate", UserPrompt: "validate it"},
			{Role: "formatter", SystemPrompt: "format", UserPrompt: "format it"},
		},
		Workflow: []taskdoc.WorkflowEdge{
			{From: "proposer", To: "reviewer", Condition: taskdoc.OutcomeProposalGenerated},
			{From: "reviewer", To: "proposer", Condition: taskdoc.OutcomeRevisionRequested},
			{From: "reviewer", To: "validator", Condition: taskdoc.OutcomeApproved},
			{From: "validator", To: "proposer", Condition: taskdoc.OutcomeRevisionRequested},
			{From: "validator", To: "formatter", Condition: taskdoc.OutcomeValidated},
			{From: "formatter", To: "completed", Condition: taskdoc.OutcomeExported},
		},
		Parameters: taskdoc.Parameters{RevisionBudget: 5, TurnLimit: 20},
		Output:     taskdoc.Output{Format: taskdoc.OutputMarkdown, File: outFile},
	}
}

func TestRunHappyPathWritesOutput(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.md")

	sender := &scriptedSender{replies: []string{
		"Proposal: the file is b.txt",
		"Approved",
		"Validated",
		"# Result\n\nThe file is b.txt",
	}}

	task := fullWorkflowTask(outFile)
	mgr := New(task, sender, module.NewRegistry(), event.NoopSink{}, nil)

	if err := mgr.Run(context.Background(), "t1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "# Result\n\nThe file is b.txt" {
		t.Errorf("output = %q", string(data))
	}
}

func TestRunRevisionLoopExhaustsBudget(t *testing.T) {
	task := fullWorkflowTask(filepath.Join(t.TempDir(), "out.md"))
	task.Parameters.RevisionBudget = 2

	replies := make([]string, 0, 10)
	for i := 0; i < 6; i++ {
		replies = append(replies, "Revise: incomplete")
	}
	sender := &scriptedSender{replies: replies}
	mgr := New(task, sender, module.NewRegistry(), event.NoopSink{}, nil)

	err := mgr.Run(context.Background(), "t2")
	if err == nil {
		t.Fatal("expected RevisionLimitExceeded error")
	}
}

func TestRunResolvesFileContext(t *testing.T) {
	dir := t.TempDir()
	ctxFile := filepath.Join(dir, "ticket.txt")
	os.WriteFile(ctxFile, []byte("customer cannot log in"), 0o644)
	outFile := filepath.Join(dir, "out.md")

	task := fullWorkflowTask(outFile)
	task.BaseDir = dir
	task.Context = []taskdoc.Context{{Alias: "ticket", Kind: taskdoc.ContextFile, Content: "ticket.txt"}}

	sender := &scriptedSender{replies: []string{
		"Proposal: done",
		"Approved",
		"Validated",
		"formatted",
	}}
	mgr := New(task, sender, module.NewRegistry(), event.NoopSink{}, nil)

	if err := mgr.Run(context.Background(), "t3"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestProposalAndFeedbackHistoryGrowWithEachOutcome(t *testing.T) {
	dir := t.TempDir()
	task := fullWorkflowTask(filepath.Join(dir, "out.md"))
	task.Parameters.RevisionBudget = 2

	sender := &scriptedSender{replies: []string{
		"Proposal: v1",
		"Revise: needs more detail",
		"Proposal: v2",
		"Approved",
		"Validated",
		"# Done",
	}}
	mgr := New(task, sender, module.NewRegistry(), event.NoopSink{}, nil)

	if err := mgr.Run(context.Background(), "t-history"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(mgr.ProposalHistory) != 2 {
		t.Fatalf("ProposalHistory = %v, want 2 entries (one per proposal_generated outcome)", mgr.ProposalHistory)
	}
	if mgr.ProposalHistory[0] != "v1" || mgr.ProposalHistory[1] != "v2" {
		t.Errorf("ProposalHistory = %v, want [v1 v2]", mgr.ProposalHistory)
	}
	if len(mgr.FeedbackHistory) != 1 {
		t.Fatalf("FeedbackHistory = %v, want 1 entry (one per revision_requested outcome)", mgr.FeedbackHistory)
	}
	if mgr.FeedbackHistory[0] != "needs more detail" {
		t.Errorf("FeedbackHistory[0] = %q", mgr.FeedbackHistory[0])
	}
}

func TestBuildRegistryWiresDeclaredModules(t *testing.T) {
	task := &taskdoc.Task{
		Modules: []taskdoc.Module{
			{Name: "fs"},
			{Name: "sh", Config: map[string]interface{}{"allowed_commands": []interface{}{"ls"}}},
			{Name: "memories"},
		},
	}
	reg, closeFn, err := BuildRegistry(task, RegistryOptions{})
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	defer closeFn()

	for _, name := range []string{"fs", "sh", "memories"} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("expected module %q to be registered", name)
		}
	}
}

func TestBuildRegistryRejectsUnknownModule(t *testing.T) {
	task := &taskdoc.Task{Modules: []taskdoc.Module{{Name: "ssh"}}}
	_, _, err := BuildRegistry(task, RegistryOptions{})
	if err == nil {
		t.Fatal("expected an error for the unregistered ssh module")
	}
}

func TestRunManyRunsIndependentTasksConcurrently(t *testing.T) {
	var runs []PendingRun
	outFiles := make([]string, 3)
	for i := range outFiles {
		outFiles[i] = filepath.Join(t.TempDir(), "out.md")
		task := fullWorkflowTask(outFiles[i])
		sender := &scriptedSender{replies: []string{
			"Proposal: done",
			"Approved",
			"Validated",
			"formatted",
		}}
		mgr := New(task, sender, module.NewRegistry(), event.NoopSink{}, nil)
		runs = append(runs, PendingRun{Manager: mgr, TaskID: "concurrent"})
	}

	errs := RunMany(context.Background(), runs)
	for i, err := range errs {
		if err != nil {
			t.Errorf("run %d: %v", i, err)
		}
	}
	for i, f := range outFiles {
		if _, err := os.ReadFile(f); err != nil {
			t.Errorf("run %d: output missing: %v", i, err)
		}
	}
}

func TestRunManyReportsEveryFailure(t *testing.T) {
	failing := fullWorkflowTask(filepath.Join(t.TempDir(), "out.md"))
	failing.Agents = failing.Agents[1:] // drop the proposer

	ok := fullWorkflowTask(filepath.Join(t.TempDir(), "out.md"))

	runs := []PendingRun{
		{Manager: New(failing, &scriptedSender{replies: []string{"Proposal: done"}}, module.NewRegistry(), event.NoopSink{}, nil), TaskID: "fails"},
		{Manager: New(ok, &scriptedSender{replies: []string{
			"Proposal: done", "Approved", "Validated", "formatted",
		}}, module.NewRegistry(), event.NoopSink{}, nil), TaskID: "succeeds"},
	}

	errs := RunMany(context.Background(), runs)
	if errs[0] == nil {
		t.Error("expected the task with no proposer agent to fail")
	}
	if errs[1] != nil {
		t.Errorf("expected the independent task to still succeed, got %v", errs[1])
	}
}

func TestRunMissingAgentForRoleIsWorkflowStuck(t *testing.T) {
	task := fullWorkflowTask(filepath.Join(t.TempDir(), "out.md"))
	task.Agents = task.Agents[1:] // drop the proposer

	sender := &scriptedSender{replies: []string{"Proposal: done"}}
	mgr := New(task, sender, module.NewRegistry(), event.NoopSink{}, nil)

	if err := mgr.Run(context.Background(), "t4"); err == nil {
		t.Fatal("expected an error for the missing proposer agent")
	}
}

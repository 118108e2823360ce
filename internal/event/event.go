// Package event implements the append-only event log the task manager
// writes to as a task runs: every role activation, module dispatch,
// and terminal outcome becomes one Event, sent to a Sink on a
// best-effort, non-blocking basis. A slow or unreachable sink never
// stalls task execution.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of event kinds the task manager emits.
type Type string

const (
	TypeTaskStarted     Type = "task_started"
	TypeRoleActivated   Type = "role_activated"
	TypeModuleRequested Type = "module_requested"
	TypeModuleResult    Type = "module_result"
	TypeModuleError     Type = "module_error"
	TypeRevision        Type = "revision"
	TypeTaskCompleted   Type = "task_completed"
	TypeTaskFailed      Type = "task_failed"
	TypeCancelled       Type = "cancelled"

	// The six outcome types below are the closed set a role activation
	// can resolve to. Their literal values match taskdoc.Outcome's
	// constants exactly, so an outcome converts directly to its event
	// Type with no translation table.
	TypeProposalGenerated Type = "proposal_generated"
	TypeRevisionRequested Type = "revision_requested"
	TypeApproved          Type = "approved"
	TypeValidated         Type = "validated"
	TypeExported          Type = "exported"
	TypeError             Type = "error"
)

// Event is one append-only record: (event_id, task_id, agent_role?,
// event_type, content, created_at).
type Event struct {
	EventID   string    `json:"event_id"`
	TaskID    string    `json:"task_id"`
	AgentRole string    `json:"agent_role,omitempty"`
	Type      Type      `json:"event_type"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds an Event with a fresh ID and the given creation time.
// Callers pass now explicitly so the package stays free of direct
// clock reads, keeping it trivial to test deterministically.
func New(taskID string, role string, typ Type, content string, now time.Time) Event {
	return Event{
		EventID:   uuid.New().String(),
		TaskID:    taskID,
		AgentRole: role,
		Type:      typ,
		Content:   content,
		CreatedAt: now,
	}
}

// Sink receives events. Implementations must not block the caller
// for long; Emit is called synchronously from the task manager's hot
// path but is expected to hand off to a buffered channel or fire off
// an async write internally.
type Sink interface {
	Emit(e Event)
	Close() error
}

package eventlog

import (
	"strings"
	"testing"
	"time"

	"github.com/vinayprograms/conclave/internal/event"
)

func TestRenderIncludesEveryEvent(t *testing.T) {
	now := time.Now()
	events := []event.Event{
		event.New("t1", "", event.TypeTaskStarted, "", now),
		event.New("t1", "proposer", event.TypeRoleActivated, "proposing a fix", now),
		event.New("t1", "", event.TypeTaskCompleted, "", now),
	}

	out := NewRenderer(false).Render("t1", events)
	if !strings.Contains(out, "task_started") {
		t.Error("missing task_started in render")
	}
	if !strings.Contains(out, "proposing a fix") {
		t.Error("missing event content in render")
	}
	if !strings.Contains(out, "task_completed") {
		t.Error("missing task_completed in render")
	}
}

func TestRenderTruncatesLongContentWhenNotVerbose(t *testing.T) {
	now := time.Now()
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "line")
	}
	events := []event.Event{
		event.New("t1", "proposer", event.TypeRoleActivated, strings.Join(lines, "\n"), now),
	}

	out := NewRenderer(false).Render("t1", events)
	if !strings.Contains(out, "more lines") {
		t.Error("expected truncation marker for long content in non-verbose mode")
	}
}

func TestRenderVerboseShowsFullContent(t *testing.T) {
	now := time.Now()
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "line")
	}
	events := []event.Event{
		event.New("t1", "proposer", event.TypeRoleActivated, strings.Join(lines, "\n"), now),
	}

	out := NewRenderer(true).Render("t1", events)
	if strings.Contains(out, "more lines") {
		t.Error("verbose render should not truncate content")
	}
}

func TestRenderEmptyEventsShowsPlaceholder(t *testing.T) {
	out := NewRenderer(false).Render("t1", nil)
	if !strings.Contains(out, "no events") {
		t.Error("expected a placeholder for an empty timeline")
	}
}

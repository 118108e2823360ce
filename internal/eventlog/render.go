package eventlog

import (
	"fmt"
	"strings"

	"github.com/vinayprograms/conclave/internal/event"
)

// Renderer formats a task's event timeline as plain text with
// lipgloss coloring, the same shape the session replay tool prints:
// a header, then one row per event, with multi-line content indented
// under its row.
type Renderer struct {
	Verbose  bool
	MaxLines int // content lines shown per event before truncation; 0 means unbounded
}

// NewRenderer returns a Renderer with the non-verbose defaults: 10
// content lines per event, full content only in verbose mode.
func NewRenderer(verbose bool) *Renderer {
	maxLines := 10
	if verbose {
		maxLines = 0
	}
	return &Renderer{Verbose: verbose, MaxLines: maxLines}
}

// Render formats every event belonging to one task.
func (r *Renderer) Render(taskID string, events []event.Event) string {
	var b strings.Builder
	r.writeHeader(&b, taskID, events)
	r.writeTimeline(&b, events)
	return b.String()
}

func (r *Renderer) writeHeader(b *strings.Builder, taskID string, events []event.Event) {
	fmt.Fprintf(b, "%s\n", titleStyle.Render("Task "+taskID))
	if len(events) == 0 {
		fmt.Fprintf(b, "%s\n", dimStyle.Render("  (no events)"))
		return
	}
	fmt.Fprintf(b, "%s %s  %s %s\n",
		labelStyle.Render("start:"), timeStyle.Render(events[0].CreatedAt.Format("2006-01-02 15:04:05")),
		labelStyle.Render("events:"), valueStyle.Render(fmt.Sprintf("%d", len(events))))
	fmt.Fprintln(b, strings.Repeat("─", 60))
}

func (r *Renderer) writeTimeline(b *strings.Builder, events []event.Event) {
	for i, e := range events {
		style := styleForType(string(e.Type))
		seq := seqStyle.Render(fmt.Sprintf("%d", i+1))
		ts := timeStyle.Render(e.CreatedAt.Format("15:04:05.000"))
		kind := style.Render(string(e.Type))

		role := ""
		if e.AgentRole != "" {
			role = " " + roleStyle.Render("["+e.AgentRole+"]")
		}
		fmt.Fprintf(b, "%s │ %s │ %s%s\n", seq, ts, kind, role)

		if e.Content == "" {
			continue
		}
		r.writeContent(b, e.Content)
	}
}

func (r *Renderer) writeContent(b *strings.Builder, content string) {
	lines := strings.Split(content, "\n")
	shown := lines
	truncated := 0
	if r.MaxLines > 0 && len(lines) > r.MaxLines {
		shown = lines[:r.MaxLines]
		truncated = len(lines) - r.MaxLines
	}
	for _, line := range shown {
		fmt.Fprintf(b, "      │          │   %s\n", line)
	}
	if truncated > 0 {
		fmt.Fprintf(b, "      │          │   %s\n",
			blockHeaderStyle.Render(fmt.Sprintf("... (%d more lines, use -v to show all)", truncated)))
	}
}

package eventlog

import "github.com/charmbracelet/lipgloss"

// Color scheme, narrowed from the session replay tool's per-component
// palette down to conclave's flat event.Type set: each event kind
// gets one consistent color across a run.
var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	moduleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	outcomeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	seqStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(5).
			Align(lipgloss.Right)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	blockHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true)
)

// styleForType returns the color a given event kind is rendered in.
func styleForType(t string) lipgloss.Style {
	switch t {
	case "task_started", "task_completed":
		return successStyle
	case "task_failed", "module_error", "cancelled":
		return errorStyle
	case "role_activated":
		return roleStyle
	case "module_requested", "module_result":
		return moduleStyle
	case "outcome", "revision":
		return outcomeStyle
	default:
		return dimStyle
	}
}

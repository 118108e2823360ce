// Package role implements the per-activation turn loop: prompt
// assembly, LLM round-trips, module-request dispatch, and
// outcome-marker detection, per spec §4.5.
package role

import (
	"strings"

	"github.com/vinayprograms/conclave/internal/taskdoc"
)

// marker is one case-insensitive prefix a role's first non-empty
// output line is checked against.
type marker struct {
	prefix  string
	outcome taskdoc.Outcome
}

// markersByRole implements the closed outcome table from spec
// §4.5. Order matters within a role: the first matching prefix wins.
var markersByRole = map[string][]marker{
	"proposer": {
		{prefix: "proposal:", outcome: taskdoc.OutcomeProposalGenerated},
	},
	"reviewer": {
		{prefix: "approved", outcome: taskdoc.OutcomeApproved},
		{prefix: "revise:", outcome: taskdoc.OutcomeRevisionRequested},
	},
	"validator": {
		{prefix: "validated", outcome: taskdoc.OutcomeValidated},
		{prefix: "not valid:", outcome: taskdoc.OutcomeRevisionRequested},
	},
}

// detectOutcome inspects the first non-empty line of text against
// the role's marker table. Unmatched proposer output is treated as
// a continuation (revision_requested) per the table's "anything
// else" rule; formatter output of any non-empty text is exported.
func detectOutcome(role, text string) taskdoc.Outcome {
	line := firstNonEmptyLine(text)

	if role == "formatter" {
		if line == "" {
			return taskdoc.OutcomeError
		}
		return taskdoc.OutcomeExported
	}

	for _, m := range markersByRole[role] {
		if strings.HasPrefix(strings.ToLower(line), m.prefix) {
			return m.outcome
		}
	}

	if role == "proposer" {
		return taskdoc.OutcomeRevisionRequested
	}
	return taskdoc.OutcomeError
}

// firstNonEmptyLine returns the first line with non-whitespace
// content, or "" if text has none.
func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// ExtractProposal returns the text after the "Proposal:" marker,
// trimmed, for appending to the proposal history.
func ExtractProposal(text string) string {
	return extractAfterMarker(text, "proposal:")
}

// ExtractFeedback returns the explanatory text after a "Revise:" or
// "Not valid:" marker, for seeding the next proposer turn.
func ExtractFeedback(text string) string {
	if fb := extractAfterMarker(text, "revise:"); fb != "" {
		return fb
	}
	return extractAfterMarker(text, "not valid:")
}

func extractAfterMarker(text, prefixLower string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(trimmed), prefixLower) {
			rest := trimmed[len(prefixLower):]
			rest = strings.TrimSpace(rest)
			if i+1 < len(lines) {
				remainder := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
				if remainder != "" {
					if rest != "" {
						rest += "\n" + remainder
					} else {
						rest = remainder
					}
				}
			}
			return rest
		}
		return ""
	}
	return ""
}

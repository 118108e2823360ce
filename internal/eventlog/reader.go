// Package eventlog reads back the JSONL event log a file-backed
// event.Sink writes, for offline inspection by the replay binary. It
// never depends on internal/taskmgr or internal/role; it only knows
// the wire shape of event.Event.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/vinayprograms/conclave/internal/event"
)

// ReadFile loads every event record from path, one JSON object per
// line, in file order. Blank lines are skipped; a malformed line
// fails the whole read rather than silently dropping a record, since
// a truncated write usually means the last line, and dropping
// silently would mask a corrupt log.
func ReadFile(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", path, err)
	}
	defer f.Close()

	var events []event.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e event.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log %s: %w", path, err)
	}
	return events, nil
}

// TaskIDs returns the distinct task IDs present in events, ordered by
// each task's first appearance.
func TaskIDs(events []event.Event) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range events {
		if !seen[e.TaskID] {
			seen[e.TaskID] = true
			ids = append(ids, e.TaskID)
		}
	}
	return ids
}

// ForTask filters events down to a single task ID, preserving order.
func ForTask(events []event.Event, taskID string) []event.Event {
	var out []event.Event
	for _, e := range events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// SortByTime stable-sorts events by CreatedAt. A FileSink appends in
// emission order already, but a multi-process run (two conclave
// instances sharing one sink file) can interleave tasks with clocks
// that drift relative to each other; CreatedAt is the source of
// truth for display order.
func SortByTime(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
}

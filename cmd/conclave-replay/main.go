// Package main is the entry point for the conclave-replay CLI, a
// standalone tool for forensic inspection of a conclave event log.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/vinayprograms/conclave/internal/eventlog"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	args := os.Args[1:]

	verbose := false
	noPager := false
	liveMode := false
	taskID := ""
	var path string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-v" || args[i] == "--verbose":
			verbose = true
		case args[i] == "--no-pager":
			noPager = true
		case args[i] == "-f" || args[i] == "--follow" || args[i] == "--live":
			liveMode = true
		case args[i] == "--task":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "error: --task requires a task ID\n")
				os.Exit(1)
			}
			i++
			taskID = args[i]
		case strings.HasPrefix(args[i], "--task="):
			taskID = strings.TrimPrefix(args[i], "--task=")
		case args[i] == "-h" || args[i] == "--help":
			printUsage()
			os.Exit(0)
		case args[i] == "--version":
			fmt.Printf("conclave-replay version %s (commit: %s)\n", version, commit)
			os.Exit(0)
		case !strings.HasPrefix(args[i], "-"):
			path = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}

	if path == "" {
		printUsage()
		os.Exit(1)
	}

	renderer := eventlog.NewRenderer(verbose)

	if liveMode {
		runLive(path, taskID, renderer)
		return
	}

	events, err := eventlog.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	eventlog.SortByTime(events)

	if taskID == "" {
		ids := eventlog.TaskIDs(events)
		if len(ids) == 1 {
			taskID = ids[0]
		} else if len(ids) > 1 {
			fmt.Fprintf(os.Stderr, "log contains %d tasks; pass --task to pick one:\n", len(ids))
			for _, id := range ids {
				fmt.Fprintf(os.Stderr, "  %s\n", id)
			}
			os.Exit(1)
		}
	}

	rendered := renderer.Render(taskID, eventlog.ForTask(events, taskID))

	if !noPager && isTerminal(os.Stdout) {
		if err := eventlog.NewPager("conclave: "+taskID).Run(rendered); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Print(rendered)
}

func runLive(path, taskID string, renderer *eventlog.Renderer) {
	render := func() (string, error) {
		events, err := eventlog.ReadFile(path)
		if err != nil {
			return "", err
		}
		eventlog.SortByTime(events)
		id := taskID
		if id == "" {
			ids := eventlog.TaskIDs(events)
			if len(ids) > 0 {
				id = ids[len(ids)-1] // most recently started task
			}
		}
		return renderer.Render(id, eventlog.ForTask(events, id)), nil
	}

	if err := eventlog.NewPager("conclave: live").RunLive(path, render); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`conclave-replay - Forensic inspection tool for conclave event logs

Usage:
  conclave-replay [options] <events.jsonl>
  conclave-replay -f <events.jsonl>        # Live mode

Arguments:
  <events.jsonl>    A JSONL event log written by a file-backed event sink

Options:
  --task ID         Show only the named task (required when the log holds more than one)
  -f, --follow      Live mode - watch the file for changes and re-render
  -v, --verbose     Show full event content, not just the first 10 lines
  --no-pager        Disable the interactive pager (for piping)
  --version         Show version
  -h, --help        Show this help

Examples:
  conclave-replay events.jsonl
  conclave-replay --task 3fae... events.jsonl
  conclave-replay -v events.jsonl
  conclave-replay --no-pager events.jsonl | grep module_error
  conclave-replay -f events.jsonl

Navigation (interactive mode):
  ↑/↓, j/k          Scroll line by line
  PgUp/PgDn         Scroll by page
  g/G               Jump to top/bottom
  f                 Follow (jump to bottom, useful in live mode)
  /, n/N            Search, next/previous match
  q, Esc            Quit`)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

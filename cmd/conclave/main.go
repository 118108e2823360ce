// Package main is the entry point for the conclave task runner.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/vinayprograms/conclave/internal/event"
	"github.com/vinayprograms/conclave/internal/llmclient"
	"github.com/vinayprograms/conclave/internal/opconfig"
	"github.com/vinayprograms/conclave/internal/role"
	taskerrors "github.com/vinayprograms/conclave/internal/errors"
	"github.com/vinayprograms/conclave/internal/taskdoc"
	"github.com/vinayprograms/conclave/internal/taskmgr"
)

var (
	version = "dev"
	commit  = "unknown"
)

func init() {
	_ = godotenv.Load()
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("conclave"),
		kong.Description("Runs a task-driven, multi-role agent workflow against a declarative task document."),
		kong.Vars{"version": version, "commit": commit},
	)
	os.Exit(run(cli))
}

func run(cli CLI) int {
	task, err := taskdoc.LoadFile(cli.TaskConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading task document: %v\n", err)
		return 1
	}

	cfg, err := loadOperatorConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading operator config: %v\n", err)
		return 1
	}

	provider, err := createLLMProvider(cfg, task.Parameters.LLMModel, task.Parameters.LLMProvider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring LLM provider: %v\n", err)
		return 1
	}
	sender := llmclient.New(provider, time.Duration(cfg.Engine.LLMTimeoutSeconds)*time.Second)

	embedProvider, err := createEmbeddingProvider(cfg, task.Parameters.Embedder.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring embedding provider: %v\n", err)
		return 1
	}
	embedder := wrapEmbedder(embedProvider, time.Duration(cfg.Engine.EmbedTimeoutSeconds)*time.Second)

	registry, closeRegistry, err := taskmgr.BuildRegistry(task, taskmgr.RegistryOptions{Embedder: embedder})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building module registry: %v\n", err)
		return 1
	}

	sink, closeSink, err := buildEventSink(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring event sink: %v\n", err)
		return 1
	}
	defer closeSink()

	mgr := taskmgr.New(task, sender, registry, sink, taskmgr.NewStdinPrompter())
	mgr.Redact = cli.Redact
	mgr.ShTimeout = time.Duration(cfg.Engine.ShTimeoutSeconds) * time.Second
	mgr.Validator = role.NewJSONSchemaValidator()
	if cli.ExportConversation {
		task.Parameters.ExportConversation = true
	}
	mgr.AddCloser(closeRegistry)

	taskID := cli.Resume
	if taskID == "" {
		taskID = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := mgr.Run(ctx, taskID); err != nil {
		fmt.Fprintf(os.Stderr, "task %s: %v\n", taskID, err)
		if _, ok := err.(*taskerrors.Cancelled); ok {
			return 130
		}
		return 1
	}

	fmt.Fprintf(os.Stderr, "task %s: completed\n", taskID)
	return 0
}

func loadOperatorConfig(path string) (*opconfig.Config, error) {
	if path != "" {
		return opconfig.LoadFile(path)
	}
	cfg, err := opconfig.LoadDefault()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return opconfig.New(), nil
	}
	return cfg, err
}

// buildEventSink wires the operator-configured sink, defaulting to
// NoopSink when unset.
func buildEventSink(cfg *opconfig.Config) (event.Sink, func(), error) {
	switch cfg.Event.Sink {
	case "", "noop":
		return event.NoopSink{}, func() {}, nil
	case "file":
		if cfg.Event.FilePath == "" {
			return nil, nil, fmt.Errorf("event.sink = \"file\" requires event.file_path")
		}
		fs, err := event.NewFileSink(cfg.Event.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() { fs.Close() }, nil
	case "nats":
		ns, err := event.NewNATSSink(cfg.Event.NATSURL, cfg.Event.NATSSubject)
		if err != nil {
			return nil, nil, err
		}
		return ns, func() { ns.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event.sink: %s (supported: noop, file, nats)", cfg.Event.Sink)
	}
}

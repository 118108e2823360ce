package module

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vinayprograms/conclave/internal/rag"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// RAGModule exposes index and query over a per-task rag.Store.
type RAGModule struct {
	store rag.Store
}

func NewRAGModule(store rag.Store) *RAGModule {
	return &RAGModule{store: store}
}

func (m *RAGModule) Name() string { return "rag" }

func (m *RAGModule) Execute(ctx context.Context, action string, args []string) (string, error) {
	switch action {
	case "index":
		return m.index(ctx, args)
	case "query":
		return m.query(ctx, args)
	default:
		return "", unknownAction("rag", action, []string{"index", "query"})
	}
}

// index chunks the given source_path or raw_text, embeds each chunk,
// and persists it under document_id. Re-indexing an already-known
// document_id replaces its prior chunks rather than duplicating them.
func (m *RAGModule) index(ctx context.Context, args []string) (string, error) {
	content, kv := splitPathAndKV(args)
	if content == "" {
		return "", missingArg("rag", "index", "source_path or raw_text")
	}
	documentID := kv["document_id"]
	if documentID == "" {
		return "", missingArg("rag", "index", "document_id")
	}

	sourcePath := ""
	text := content
	if data, err := os.ReadFile(content); err == nil {
		sourcePath = content
		text = string(data)
	}

	chunks := rag.Chunk(text, rag.DefaultChunkOptions())
	if err := m.store.Index(ctx, documentID, sourcePath, chunks); err != nil {
		return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "indexing %s: %v", documentID, err)
	}
	return fmt.Sprintf("document %s indexed as %d chunk(s)", documentID, len(chunks)), nil
}

// query returns the top-k chunks ordered by decreasing similarity,
// each rendered as "[source_path#chunk_index] text".
func (m *RAGModule) query(ctx context.Context, args []string) (string, error) {
	text, k := splitQueryAndK(args)
	if text == "" {
		return "", missingArg("rag", "query", "text")
	}

	hits, err := m.store.Query(ctx, text, k)
	if err != nil {
		return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "rag query: %v", err)
	}
	var lines []string
	for _, h := range hits {
		lines = append(lines, fmt.Sprintf("[%s#%d] %s", h.SourcePath, h.ChunkIndex, h.Text))
	}
	return strings.Join(lines, "\n"), nil
}

// splitQueryAndK collects bare arguments into the query text and
// reads an optional k=<n> argument, defaulting to 5 when absent or
// invalid, mirroring memories.go's splitRecallArgs.
func splitQueryAndK(args []string) (text string, k int) {
	k = 5
	var parts []string
	for _, a := range args {
		if key, value, ok := strings.Cut(a, "="); ok && key == "k" {
			if n, err := strconv.Atoi(value); err == nil {
				k = n
			}
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " "), k
}

// Package memory implements the backing store for the "memories"
// module: a long-term, free-form note store distinct from the RAG
// layer (internal/rag), scoped to a single task's lifetime. Notes
// are appended with insert and retrieved with recall, which uses
// nearest-neighbor search when an embedder is configured and falls
// back to full-text substring search otherwise.
package memory

import (
	"context"
	"time"
)

// Note is one appended record.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Embedder generates vector embeddings for text. It mirrors
// internal/rag.Embedder rather than importing it, so this package
// has no dependency on the RAG layer — the two stores are
// deliberately independent per spec.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the contract the "memories" module dispatches against.
type Store interface {
	Insert(ctx context.Context, text string) (Note, error)
	Recall(ctx context.Context, query string, k int) ([]Note, error)
	Close() error
}

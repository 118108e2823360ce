package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestChunkShortTextIsSingleChunk(t *testing.T) {
	chunks := Chunk("hello world", DefaultChunkOptions())
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestChunkLongTextSplitsWithOverlap(t *testing.T) {
	text := strings.Repeat("word ", 500) // 2500 chars
	chunks := Chunk(text, ChunkOptions{Target: 1000, Overlap: 100})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
}

func TestChunkSnapsToNewlineWithinSlack(t *testing.T) {
	// Construct text with a newline near the target boundary so the
	// chunk break should land right after it rather than mid-word.
	before := strings.Repeat("a", 990)
	after := strings.Repeat("b", 2000)
	text := before + "\n" + after
	chunks := Chunk(text, ChunkOptions{Target: 1000, Overlap: 0})
	if len(chunks) < 1 {
		t.Fatal("expected at least one chunk")
	}
	if !strings.HasSuffix(chunks[0], "a") {
		t.Errorf("expected first chunk to end at the snapped newline, got suffix %q", chunks[0][len(chunks[0])-10:])
	}
}

// fakeEmbedder returns deterministic vectors: cosine closeness is
// rigged by shared keyword overlap, enough to exercise ranking
// without depending on a real model.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	return out, nil
}

func keywordVector(text string) []float32 {
	dims := map[string]int{"fruit": 0, "color": 1, "sky": 2}
	v := make([]float32, len(dims))
	lower := strings.ToLower(text)
	if strings.Contains(lower, "apple") || strings.Contains(lower, "fruit") {
		v[0] = 1
	}
	if strings.Contains(lower, "red") || strings.Contains(lower, "blue") || strings.Contains(lower, "color") {
		v[1] = 1
	}
	if strings.Contains(lower, "sky") {
		v[2] = 1
	}
	if v[0] == 0 && v[1] == 0 && v[2] == 0 {
		v[1] = 0.01
	}
	return v
}

func TestQueryReturnsMostRelevantChunk(t *testing.T) {
	store := NewInMemoryStore(fakeEmbedder{})
	ctx := context.Background()
	err := store.Index(ctx, "doc-1", "facts.txt", []string{"apples are red", "the sky is blue"})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	hits, err := store.Query(ctx, "colors of fruit", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Text != "apples are red" {
		t.Errorf("top hit = %q, want %q", hits[0].Text, "apples are red")
	}
	if hits[0].SourcePath != "facts.txt" || hits[0].ChunkIndex != 0 {
		t.Errorf("hit = %+v, want source_path=facts.txt chunk_index=0", hits[0])
	}
}

func TestQueryTieBreaksByInsertionOrder(t *testing.T) {
	store := NewInMemoryStore(fakeEmbedder{})
	ctx := context.Background()
	store.Index(ctx, "doc-1", "chunks.txt", []string{"first chunk", "second chunk"})

	hits, err := store.Query(ctx, "unrelated query with no keyword overlap", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits")
	}
	if hits[0].Text != "first chunk" {
		t.Errorf("expected insertion order to break the tie, got %q first", hits[0].Text)
	}
}

func TestIndexSameDocumentIDReplacesPriorChunks(t *testing.T) {
	store := NewInMemoryStore(fakeEmbedder{})
	ctx := context.Background()

	if err := store.Index(ctx, "doc-1", "a.txt", []string{"v1 chunk a", "v1 chunk b"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := store.Index(ctx, "doc-1", "a.txt", []string{"v2 chunk a"}); err != nil {
		t.Fatalf("Index (re-index): %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after re-indexing doc-1 replaced its chunks", store.Len())
	}

	hits, err := store.Query(ctx, "unrelated query with no keyword overlap", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].Text != "v2 chunk a" {
		t.Fatalf("hits = %+v, want only the re-indexed chunk", hits)
	}
}

// countingEmbedder records how many Embed calls it receives and, for
// each text, returns a vector unique to that text's position in the
// call so tests can confirm batching preserves order.
type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		n, _ := strconv.Atoi(strings.TrimPrefix(t, "chunk"))
		out[i] = []float32{float32(n)}
		_ = i
	}
	return out, nil
}

func TestIndexBatchesLargeChunkSetsConcurrently(t *testing.T) {
	store := NewInMemoryStore(&countingEmbedder{})
	ctx := context.Background()

	total := embedBatchSize*2 + 5
	texts := make([]string, total)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk%d", i)
	}

	err := store.Index(ctx, "doc-1", "big.txt", texts)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if store.Len() != total {
		t.Fatalf("Len() = %d, want %d", store.Len(), total)
	}

	for i, r := range store.records {
		if r.text != fmt.Sprintf("chunk%d", i) {
			t.Fatalf("records[%d].text = %q, want chunk%d in original order", i, r.text, i)
		}
		if r.chunkIndex != i {
			t.Fatalf("records[%d].chunkIndex = %d, want %d", i, r.chunkIndex, i)
		}
	}
}

func TestLenReflectsIndexedCount(t *testing.T) {
	store := NewInMemoryStore(fakeEmbedder{})
	ctx := context.Background()
	store.Index(ctx, "doc-1", "letters.txt", []string{"a", "b", "c"})
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
}

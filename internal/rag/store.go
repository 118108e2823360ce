package rag

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// embedBatchSize bounds how many texts are sent to the embedder in
// one request. Index splits a large chunk set into batches of this
// size and embeds them concurrently rather than issuing one
// unbounded request.
const embedBatchSize = 64

// embedConcurrency bounds how many batches are in flight against the
// embedding provider at once, so a large Index call doesn't open
// hundreds of simultaneous HTTP requests.
const embedConcurrency = 4

// Embedder is the external embedding-provider boundary: given texts,
// return one vector per text. Implementations are supplied by the
// LLM/embedding client configured for the task; this package never
// calls a provider directly.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Hit is one retrieval result. SourcePath and ChunkIndex together
// identify where the text came from, per spec's `[source_path#chunk_index]
// text` rendering.
type Hit struct {
	DocumentID string
	SourcePath string
	ChunkIndex int
	Text       string
	Score      float32
}

// Store indexes a document's chunks under documentID and answers
// nearest-neighbor queries. Re-indexing an already-known documentID
// is idempotent: it replaces that document's prior chunks rather than
// accumulating duplicates, keeping (document_id, chunk_index) unique.
type Store interface {
	Index(ctx context.Context, documentID, sourcePath string, texts []string) error
	Query(ctx context.Context, query string, k int) ([]Hit, error)
	Len() int
}

// InMemoryStore is a brute-force, unit-normalized inner-product
// store. Acceptable up to roughly 10^6 chunks per spec §4.7; beyond
// that an external vector index would be needed, which this design
// deliberately does not provide.
type InMemoryStore struct {
	mu       sync.RWMutex
	embedder Embedder
	records  []chunkRecord
}

type chunkRecord struct {
	documentID string
	sourcePath string
	chunkIndex int
	text       string
	vector     []float32
}

// NewInMemoryStore returns an empty store backed by embedder.
func NewInMemoryStore(embedder Embedder) *InMemoryStore {
	return &InMemoryStore{embedder: embedder}
}

// Index embeds texts and stores them as documentID's chunks, in
// order, under sourcePath. A prior Index call for the same documentID
// is replaced wholesale, so re-indexing the same document never
// duplicates its chunks. Large chunk sets are embedded in concurrent
// batches; the stored order always matches texts.
func (s *InMemoryStore) Index(ctx context.Context, documentID, sourcePath string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	vecs, err := s.embedBatched(ctx, texts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeDocument(documentID)
	for i, text := range texts {
		s.records = append(s.records, chunkRecord{
			documentID: documentID,
			sourcePath: sourcePath,
			chunkIndex: i,
			text:       text,
			vector:     normalize(vecs[i]),
		})
	}
	return nil
}

// removeDocument drops every chunk previously indexed under
// documentID. Callers hold s.mu for writing.
func (s *InMemoryStore) removeDocument(documentID string) {
	kept := s.records[:0]
	for _, r := range s.records {
		if r.documentID != documentID {
			kept = append(kept, r)
		}
	}
	s.records = kept
}

// Query embeds q and returns the top k chunks by inner product.
// Ties are broken by insertion order, since the underlying slice is
// scanned front-to-back and sort.SliceStable preserves that order for
// equal scores.
func (s *InMemoryStore) Query(ctx context.Context, q string, k int) ([]Hit, error) {
	vecs, err := s.embedder.Embed(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	queryVec := normalize(vecs[0])

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, len(s.records))
	for i, r := range s.records {
		hits[i] = Hit{
			DocumentID: r.documentID,
			SourcePath: r.sourcePath,
			ChunkIndex: r.chunkIndex,
			Text:       r.text,
			Score:      innerProduct(queryVec, r.vector),
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k <= 0 || k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// embedBatched splits texts into embedBatchSize-sized batches and
// embeds up to embedConcurrency of them at once, collecting the
// per-text vectors back into texts' original order. A single batch
// is embedded directly, skipping the errgroup machinery.
func (s *InMemoryStore) embedBatched(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) <= embedBatchSize {
		return s.embedder.Embed(ctx, texts)
	}

	type batch struct {
		start int
		texts []string
	}
	var batches []batch
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start: start, texts: texts[start:end]})
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for _, b := range batches {
		b := b
		g.Go(func() error {
			vecs, err := s.embedder.Embed(gctx, b.texts)
			if err != nil {
				return err
			}
			copy(out[b.start:b.start+len(vecs)], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Len reports how many chunks are indexed.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func innerProduct(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// VectorStore recalls notes by nearest-neighbor over an embedder,
// the same brute-force unit-normalized-inner-product approach
// internal/rag uses for chunk retrieval. Kept as a separate type
// rather than sharing internal/rag's store so the two stacks don't
// leak into one another (spec's "must not leak across tasks" note
// applies per-store, not just per-task).
type VectorStore struct {
	mu       sync.RWMutex
	embedder Embedder
	notes    []Note
	vectors  [][]float32
}

// NewVectorStore returns an empty store backed by embedder.
func NewVectorStore(embedder Embedder) *VectorStore {
	return &VectorStore{embedder: embedder}
}

func (s *VectorStore) Insert(ctx context.Context, text string) (Note, error) {
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note := Note{ID: uuid.New().String(), Text: text, CreatedAt: time.Now()}
	s.notes = append(s.notes, note)
	s.vectors = append(s.vectors, normalize(vecs[0]))
	return note, nil
}

func (s *VectorStore) Recall(ctx context.Context, query string, k int) ([]Note, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	q := normalize(vecs[0])

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		note  Note
		score float32
	}
	scoredNotes := make([]scored, len(s.notes))
	for i, n := range s.notes {
		scoredNotes[i] = scored{note: n, score: innerProduct(q, s.vectors[i])}
	}
	sort.SliceStable(scoredNotes, func(i, j int) bool {
		return scoredNotes[i].score > scoredNotes[j].score
	})
	if k <= 0 || k > len(scoredNotes) {
		k = len(scoredNotes)
	}
	out := make([]Note, k)
	for i := 0; i < k; i++ {
		out[i] = scoredNotes[i].note
	}
	return out, nil
}

func (s *VectorStore) Close() error { return nil }

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

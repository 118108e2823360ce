package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
)

// noteDocument is the shape indexed into Bleve; mirrors Note plus
// the fields Bleve needs to search.
type noteDocument struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// BleveStore recalls notes by full-text match when no embedder is
// configured for the task. Built in-memory (bleve.NewMemOnly) since
// the store's lifetime is scoped to one task and torn down on
// completion, per spec §9's "per-task ownership" design note.
type BleveStore struct {
	mu    sync.RWMutex
	index bleve.Index
	notes map[string]Note
}

// NewBleveStore returns an empty in-memory full-text store.
func NewBleveStore() (*BleveStore, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &BleveStore{index: index, notes: make(map[string]Note)}, nil
}

func (s *BleveStore) Insert(ctx context.Context, text string) (Note, error) {
	note := Note{ID: uuid.New().String(), Text: text, CreatedAt: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Index(note.ID, noteDocument{Text: text, CreatedAt: note.CreatedAt}); err != nil {
		return Note{}, fmt.Errorf("indexing note: %w", err)
	}
	s.notes[note.ID] = note
	return note, nil
}

func (s *BleveStore) Recall(ctx context.Context, q string, k int) ([]Note, error) {
	if k <= 0 {
		k = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := bleve.NewMatchQuery(q)
	req := bleve.NewSearchRequest(query)
	req.Size = k
	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}

	out := make([]Note, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if note, ok := s.notes[hit.ID]; ok {
			out = append(out, note)
		}
	}
	if len(out) == 0 {
		out = s.substringFallback(q, k)
	}
	return out, nil
}

// substringFallback covers queries too short or too sparse for
// Bleve's term matching to score anything, e.g. single-token exact
// lookups in a near-empty index.
func (s *BleveStore) substringFallback(q string, k int) []Note {
	var out []Note
	for _, n := range s.notes {
		if strings.Contains(strings.ToLower(n.Text), strings.ToLower(q)) {
			out = append(out, n)
			if len(out) >= k {
				break
			}
		}
	}
	return out
}

func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

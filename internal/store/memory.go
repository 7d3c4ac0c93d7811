package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// MemoryStore is an in-process Store for tests and single-node deployments.
// Batches are deep-copied on every read and write, so a poller never
// observes a partially written outcome.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*model.Batch
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{batches: make(map[string]*model.Batch)}
}

func (s *MemoryStore) CreateBatch(_ context.Context, b *model.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[b.ID]; exists {
		return eris.Errorf("memory: batch %s already exists", b.ID)
	}
	s.batches[b.ID] = b.Clone()
	return nil
}

func (s *MemoryStore) PutBatch(_ context.Context, b *model.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[b.ID]; !exists {
		return ErrNotFound
	}
	s.batches[b.ID] = b.Clone()
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id string) (*model.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (s *MemoryStore) ListBatches(_ context.Context, filter BatchFilter) ([]model.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Batch
	for _, b := range s.batches {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *b.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

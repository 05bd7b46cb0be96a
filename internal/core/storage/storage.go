// Package storage provides state.Store implementations for snapshot slots.
package storage

import (
	"context"
	"sync"

	"github.com/zeusync/director/internal/core/state"
)

// Statistics counts operations served by a store.
type Statistics struct {
	Reads   uint64 `json:"reads"`
	Writes  uint64 `json:"writes"`
	Deletes uint64 `json:"deletes"`
}

var (
	_ state.Store = (*MemoryStore)(nil)
	_ state.Store = (*FileStore)(nil)
)

// MemoryStore keeps slots in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]state.Snapshot
	stats Statistics
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]state.Snapshot)}
}

func (s *MemoryStore) Save(ctx context.Context, slot string, snap state.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = snap
	s.stats.Writes++
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, slot string) (state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.slots[slot]
	if !ok {
		return state.Snapshot{}, state.ErrSlotNotFound
	}
	s.stats.Reads++
	return snap, nil
}

func (s *MemoryStore) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slot]; !ok {
		return state.ErrSlotNotFound
	}
	delete(s.slots, slot)
	s.stats.Deletes++
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.slots))
	for slot := range s.slots {
		out = append(out, slot)
	}
	return out, nil
}

func (s *MemoryStore) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

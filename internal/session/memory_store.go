package session

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Record
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Record),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Flashes = append([]string(nil), rec.Flashes...)
	s.items[rec.ID] = rec

	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[id]

	if !ok {
		return Record{}, ErrNoSession
	}

	if rec.Expired(s.now()) {
		delete(s.items, id)
		return Record{}, ErrNoSession
	}

	rec.Flashes = append([]string(nil), rec.Flashes...)

	return rec, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

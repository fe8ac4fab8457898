package store

import (
	"context"
	"sync"
)

type collection struct {
	order []string
	docs  map[string][]byte
}

// MemoryStore is an in-process Backend. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	kinds map[Kind]*collection
	lists map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kinds: make(map[Kind]*collection),
		lists: make(map[string][]byte),
	}
}

func (s *MemoryStore) PutDocuments(_ context.Context, kind Kind, docs []Document, mode WriteMode) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.kinds[kind]
	if !ok {
		c = &collection{docs: make(map[string][]byte)}
		s.kinds[kind] = c
	}
	n := 0
	for _, d := range docs {
		if _, seen := c.docs[d.ID]; seen {
			if mode == AppendOnly {
				continue
			}
		} else {
			c.order = append(c.order, d.ID)
		}
		c.docs[d.ID] = append([]byte(nil), d.Data...)
		n++
	}
	return n, nil
}

func (s *MemoryStore) Documents(_ context.Context, kind Kind) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.kinds[kind]
	if !ok {
		return nil, nil
	}
	out := make([][]byte, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id])
	}
	return out, nil
}

func (s *MemoryStore) GetList(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists[key], nil
}

func (s *MemoryStore) PutList(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

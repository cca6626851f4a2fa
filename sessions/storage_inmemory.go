package sessions

import "sync"

// InMemoryStorage is a Storage that lives only as long as the process.
type InMemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ Storage = (*InMemoryStorage)(nil)

// NewInMemoryStorage creates a new empty in-memory storage
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		items: make(map[string]string),
	}
}

func (s *InMemoryStorage) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *InMemoryStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *InMemoryStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

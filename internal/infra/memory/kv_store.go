package memory

import (
	"context"
	"sync"
)

// KVStore is a process-local snapshot medium. Contents are lost on exit.
type KVStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewKVStore() *KVStore {
	return &KVStore{entries: make(map[string][]byte)}
}

func (s *KVStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *KVStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = append([]byte(nil), value...)
	return nil
}

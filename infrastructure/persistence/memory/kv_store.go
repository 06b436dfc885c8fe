package memory

import (
	"context"
	"sort"
	"sync"

	"canvas-backend/application/ports"
)

// KeyValueStore keeps values in process memory. Values are copied on the way
// in and out so callers cannot alias the stored bytes.
type KeyValueStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

// NewKeyValueStore creates an empty in-memory store
func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{values: make(map[string][]byte)}
}

// Get retrieves the value under key
func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores value under key
func (s *KeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

// Writes returns how many Put calls succeeded.
func (s *KeyValueStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Keys returns the stored keys in sorted order.
func (s *KeyValueStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ ports.KeyValueStore = (*KeyValueStore)(nil)

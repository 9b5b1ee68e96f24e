package kvstore

import (
	"cmp"
	"slices"
	"sync"
)

type KVStore[K cmp.Ordered, V any] struct {
	data map[K]V
	mu   sync.RWMutex
}

// New creates new KVStore instance.
func New[K cmp.Ordered, V any]() *KVStore[K, V] {
	return &KVStore[K, V]{data: make(map[K]V)}
}

// Get returns value by key.
func (s *KVStore[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.data[key]
	return item, ok
}

// Set stores value in storage making it accessible by key.
func (s *KVStore[K, V]) Set(key K, data V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
}

// Remove entry by key.
func (s *KVStore[K, V]) Remove(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[key]
	delete(s.data, key)
	return ok
}

// Update atomically replaces the entry for key with the result of fn.
// fn receives the current value and whether it exists; returning keep=false
// removes the entry.
func (s *KVStore[K, V]) Update(key K, fn func(current V, exists bool) (next V, keep bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.data[key]
	next, keep := fn(current, exists)
	if !keep {
		delete(s.data, key)
		return
	}
	s.data[key] = next
}

// Len returns the number of stored entries.
func (s *KVStore[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Keys returns stored keys in ascending order.
func (s *KVStore[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ABOUTME: In-process Store implementation
// ABOUTME: Used for the memory backend and in tests
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryRecord struct {
	payload   []byte
	fetchedAt time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(key string) ([]byte, time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return append([]byte{}, r.payload...), r.fetchedAt, true, nil
}

func (s *MemoryStore) Save(key string, payload []byte, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = memoryRecord{payload: append([]byte{}, payload...), fetchedAt: fetchedAt}
	return nil
}

func (s *MemoryStore) DeletePrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.records {
		if strings.HasPrefix(k, prefix) {
			delete(s.records, k)
		}
	}
	return nil
}

func (s *MemoryStore) Keys(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := []string{}
	for k := range s.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Prune(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, r := range s.records {
		if r.fetchedAt.Before(cutoff) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Package session provides the ephemeral key/value store backing alert
// suppression. Values live for one user session and are never persisted.
package session

import "sync"

// Store is the minimal contract the alert engine needs: look up a
// suppression key and mark one dismissed.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Memory is an in-process Store, safe for concurrent use.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *Memory) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

// Reset drops all keys, emulating the start of a new session.
func (s *Memory) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]string)
}

package flagstore

import (
	"context"
	"sync"
	"time"
)

type MemFlagStore struct {
	mu   sync.Mutex
	data map[string]map[string]time.Time

	// Now is the clock used for expiry checks. Override in tests.
	Now func() time.Time
}

var _ FlagStore = (*MemFlagStore)(nil)

func NewMemFlagStore() *MemFlagStore {
	return &MemFlagStore{
		data: make(map[string]map[string]time.Time),
		Now:  time.Now,
	}
}

func (s *MemFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	out := []string{}
	for flag, expiry := range s.data[key] {
		if !expiry.IsZero() && !expiry.After(now) {
			delete(s.data[key], flag)
			continue
		}
		out = append(out, flag)
	}
	if len(s.data[key]) == 0 {
		delete(s.data, key)
	}
	return out, nil
}

func (s *MemFlagStore) Add(ctx context.Context, key string, flags []string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expiry time.Time
	if ttl > 0 {
		expiry = s.Now().Add(ttl)
	}
	m, ok := s.data[key]
	if !ok {
		m = make(map[string]time.Time)
		s.data[key] = m
	}
	for _, f := range flags {
		m[f] = expiry
	}
	return nil
}

func (s *MemFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[key]
	if !ok {
		return nil
	}
	for _, f := range flags {
		delete(m, f)
	}
	if len(m) == 0 {
		delete(s.data, key)
	}
	return nil
}

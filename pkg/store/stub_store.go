package store

import (
	"context"
	"sync"
)

// StubStore is an in-memory Store for tests. When SaveErr is set, Save fails and
// keeps the previously saved dataset.
type StubStore struct {
	mu      sync.Mutex
	data    *Dataset
	saves   int
	SaveErr error
}

func NewStubStore() *StubStore {
	return &StubStore{}
}

// NewStubStoreWith returns a stub that already holds data.
func NewStubStoreWith(data Dataset) *StubStore {
	d := data.Clone()
	return &StubStore{data: &d}
}

func (s *StubStore) Load(ctx context.Context) Dataset {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()
	if data == nil {
		return seed(ctx, s, "stub store")
	}
	return data.Clone()
}

func (s *StubStore) Save(_ context.Context, data Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	d := data.Clone()
	s.data = &d
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *StubStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Data returns a copy of the last saved dataset.
func (s *StubStore) Data() Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return Dataset{}
	}
	return s.data.Clone()
}

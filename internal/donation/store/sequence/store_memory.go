// Package sequence allocates the human-friendly, monotonically increasing
// donation numbers. Allocation must be collision-free under concurrent
// creates, so every backend is an atomic increment-and-fetch against shared
// state, never a process-local counter.
package sequence

import (
	"context"
	"sync"
)

// InMemory is the test and single-instance allocator.
type InMemory struct {
	mu   sync.Mutex
	next int64
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Next returns the next sequential number, starting at 1.
func (s *InMemory) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next, nil
}

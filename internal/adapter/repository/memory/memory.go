// Package memory implements a process-local key-value slot.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

// Slot keeps values in a map. It is used for development and tests.
type Slot struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewSlot() *Slot {
	return &Slot{values: make(map[string][]byte)}
}

func (s *Slot) Get(_ context.Context, key string) ([]byte, error) {
	const op = "adapter.repository.memory.Slot.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrSlotEmpty)
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Slot) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()

	return nil
}

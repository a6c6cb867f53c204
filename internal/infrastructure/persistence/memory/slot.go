// Package memory provides an in-process slot. Its content is lost when the
// process exits.
package memory

import (
	"context"
	"sync"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// Slot keeps the blob in memory.
type Slot struct {
	name string

	mu     sync.RWMutex
	data   []byte
	writes int

	// FailWrites makes every Write return the error. Used by tests.
	FailWrites error
}

// NewSlot returns an empty slot.
func NewSlot(name string) *Slot {
	return &Slot{name: name}
}

// NewSlotWith returns a slot that already holds data.
func NewSlotWith(name string, data []byte) *Slot {
	s := NewSlot(name)
	s.data = append([]byte(nil), data...)
	return s
}

// Name implements gradebook.Slot.
func (s *Slot) Name() string { return s.name }

// Read implements gradebook.Slot.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, shared.ErrSlotEmpty
	}
	return append([]byte(nil), s.data...), nil
}

// Write implements gradebook.Slot.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.data = append([]byte(nil), data...)
	s.writes++
	return nil
}

// Writes returns how many successful writes the slot has received.
func (s *Slot) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Ping implements gradebook.Slot.
func (s *Slot) Ping(context.Context) error { return nil }

// Close implements gradebook.Slot.
func (s *Slot) Close() error { return nil }

package numerator

import (
	"context"
	"sync"
)

// MemorySequencer is an in-process Sequencer for tests and offline tools.
type MemorySequencer struct {
	mu     sync.Mutex
	values map[string]int64

	// NextFunc, when set, replaces Next.
	NextFunc func(ctx context.Context, key string) (int64, error)
}

// NewMemorySequencer creates an empty sequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{values: make(map[string]int64)}
}

// Next implements Sequencer.
func (m *MemorySequencer) Next(ctx context.Context, key string) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key]++
	return m.values[key], nil
}

// Current implements Sequencer.
func (m *MemorySequencer) Current(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

// Advance implements Sequencer.
func (m *MemorySequencer) Advance(_ context.Context, key string, atLeast int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] < atLeast {
		m.values[key] = atLeast
	}
	return nil
}

// Set forces the counter value.
func (m *MemorySequencer) Set(key string, v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = v
}

var _ Sequencer = (*MemorySequencer)(nil)

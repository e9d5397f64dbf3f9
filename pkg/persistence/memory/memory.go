package memory

import (
	"fmt"
	"os"
	"sync"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
)

// MemoryPersistence is an in-memory implementation of ISlotPersistence.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Copies data in and out to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// slot name -> value
	slots map[string][]byte

	closed bool
}

// Ensure MemoryPersistence implements ISlotPersistence
var _ persistence.ISlotPersistence = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory persistence layer.
// Prints a loud warning since this should only be used for testing.
func NewMemoryPersistence() *MemoryPersistence {
	fmt.Fprintln(os.Stderr, "⚠️  WARNING: Using in-memory persistence - SIGNING HISTORY WILL BE LOST ON EXIT")
	fmt.Fprintln(os.Stderr, "⚠️  This should ONLY be used for testing. Set DSS_PERSISTENCE_TYPE=badger for real runs")

	return &MemoryPersistence{
		slots: make(map[string][]byte),
	}
}

// LoadSlot returns a copy of the slot contents.
func (m *MemoryPersistence) LoadSlot(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	data, exists := m.slots[name]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return append([]byte{}, data...), nil
}

// SaveSlot replaces the slot contents.
func (m *MemoryPersistence) SaveSlot(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("slot name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.slots[name] = append([]byte{}, data...)
	return nil
}

// ClearSlot removes the slot.
func (m *MemoryPersistence) ClearSlot(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	delete(m.slots, name)
	return nil
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return nil
}

package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
	"github.com/pkg/errors"
)

// ErrInjected is returned by FlakyPersistence for every injected failure
var ErrInjected = errors.New("injected persistence failure")

// CreateTestEntries creates n history entries with distinct messages and signatures
func CreateTestEntries(n int) types.History {
	base := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	entries := make(types.History, n)
	for i := 0; i < n; i++ {
		entries[i] = types.HistoryEntry{
			Message:   types.Message(fmt.Sprintf("message %d", i)),
			Signature: types.Signature(fmt.Sprintf("%064x", i+1)),
			Timestamp: types.NewTimestamp(base.Add(time.Duration(i) * time.Minute)),
		}
	}
	return entries
}

// FlakyPersistence wraps a backend and fails operations on demand
type FlakyPersistence struct {
	inner persistence.ISlotPersistence

	mu         sync.Mutex
	failSaves  int // remaining saves to fail, -1 fails all
	loadErr    error
	clearErr   error
	saveCalls  int
	loadCalls  int
	clearCalls int
}

// Compile-time check to ensure FlakyPersistence implements ISlotPersistence
var _ persistence.ISlotPersistence = (*FlakyPersistence)(nil)

// NewFlakyPersistence wraps inner. Until told otherwise every call is passed through.
func NewFlakyPersistence(inner persistence.ISlotPersistence) *FlakyPersistence {
	return &FlakyPersistence{inner: inner}
}

// FailNextSaves makes the next n SaveSlot calls fail with ErrInjected
func (f *FlakyPersistence) FailNextSaves(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSaves = n
}

// FailAllSaves makes every SaveSlot call fail until FailNextSaves(0)
func (f *FlakyPersistence) FailAllSaves() {
	f.FailNextSaves(-1)
}

// SetLoadError makes LoadSlot return err; nil restores pass-through
func (f *FlakyPersistence) SetLoadError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = err
}

// SetClearError makes ClearSlot return err; nil restores pass-through
func (f *FlakyPersistence) SetClearError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearErr = err
}

// SaveCalls returns how many times SaveSlot was called, failed or not
func (f *FlakyPersistence) SaveCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

// LoadCalls returns how many times LoadSlot was called
func (f *FlakyPersistence) LoadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCalls
}

// ClearCalls returns how many times ClearSlot was called
func (f *FlakyPersistence) ClearCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearCalls
}

func (f *FlakyPersistence) LoadSlot(name string) ([]byte, error) {
	f.mu.Lock()
	f.loadCalls++
	err := f.loadErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return f.inner.LoadSlot(name)
}

func (f *FlakyPersistence) SaveSlot(name string, data []byte) error {
	f.mu.Lock()
	f.saveCalls++
	fail := f.failSaves != 0
	if f.failSaves > 0 {
		f.failSaves--
	}
	f.mu.Unlock()

	if fail {
		return ErrInjected
	}
	return f.inner.SaveSlot(name, data)
}

func (f *FlakyPersistence) ClearSlot(name string) error {
	f.mu.Lock()
	f.clearCalls++
	err := f.clearErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	return f.inner.ClearSlot(name)
}

func (f *FlakyPersistence) Close() error {
	return f.inner.Close()
}

func (f *FlakyPersistence) HealthCheck() error {
	return f.inner.HealthCheck()
}

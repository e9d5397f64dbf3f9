// Package persistencetest holds the behaviour every ISlotPersistence backend must share.
package persistencetest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens a fresh, empty backend for a single subtest.
type Factory func(t *testing.T) persistence.ISlotPersistence

// RunSlotPersistenceSuite runs the shared contract against backends produced by newBackend.
// slotPrefix keeps slot names unique for backends that share state between runs (redis).
func RunSlotPersistenceSuite(t *testing.T, slotPrefix string, newBackend Factory) {
	slot := func(name string) string { return slotPrefix + name }

	t.Run("SaveAndLoad", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		err := p.SaveSlot(slot("history"), []byte(`[{"msg":"hello","sig":"SIG1","time":"t1"}]`))
		require.NoError(t, err)

		loaded, err := p.LoadSlot(slot("history"))
		require.NoError(t, err)
		assert.Equal(t, `[{"msg":"hello","sig":"SIG1","time":"t1"}]`, string(loaded))
	})

	t.Run("LoadMissingSlot", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		loaded, err := p.LoadSlot(slot("never-written"))
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		require.NoError(t, p.SaveSlot(slot("overwrite"), []byte("first value that is longer")))
		require.NoError(t, p.SaveSlot(slot("overwrite"), []byte("second")))

		loaded, err := p.LoadSlot(slot("overwrite"))
		require.NoError(t, err)
		assert.Equal(t, "second", string(loaded))
	})

	t.Run("SlotsAreIndependent", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		require.NoError(t, p.SaveSlot(slot("a"), []byte("A")))
		require.NoError(t, p.SaveSlot(slot("b"), []byte("B")))
		require.NoError(t, p.ClearSlot(slot("a")))

		a, err := p.LoadSlot(slot("a"))
		require.NoError(t, err)
		assert.Nil(t, a)

		b, err := p.LoadSlot(slot("b"))
		require.NoError(t, err)
		assert.Equal(t, "B", string(b))

		_ = p.ClearSlot(slot("b"))
	})

	t.Run("ClearSlot", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		require.NoError(t, p.SaveSlot(slot("clear"), []byte("[]")))
		require.NoError(t, p.ClearSlot(slot("clear")))

		loaded, err := p.LoadSlot(slot("clear"))
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("ClearSlot_Idempotent", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		require.NoError(t, p.ClearSlot(slot("missing")))
		require.NoError(t, p.ClearSlot(slot("missing")))
	})

	t.Run("LoadedBytesAreACopy", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		original := []byte("immutable")
		require.NoError(t, p.SaveSlot(slot("copy"), original))
		original[0] = 'X'

		loaded, err := p.LoadSlot(slot("copy"))
		require.NoError(t, err)
		assert.Equal(t, "immutable", string(loaded))

		loaded[0] = 'Y'
		again, err := p.LoadSlot(slot("copy"))
		require.NoError(t, err)
		assert.Equal(t, "immutable", string(again))

		_ = p.ClearSlot(slot("copy"))
	})

	t.Run("HealthCheck", func(t *testing.T) {
		p := newBackend(t)
		require.NoError(t, p.HealthCheck())

		require.NoError(t, p.Close())
		err := p.HealthCheck()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
	})

	t.Run("OperationsAfterClose", func(t *testing.T) {
		p := newBackend(t)
		require.NoError(t, p.Close())

		err := p.SaveSlot(slot("closed"), []byte("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")

		_, err = p.LoadSlot(slot("closed"))
		require.Error(t, err)

		err = p.ClearSlot(slot("closed"))
		require.Error(t, err)
	})

	t.Run("Close_Idempotent", func(t *testing.T) {
		p := newBackend(t)
		require.NoError(t, p.Close())
		require.NoError(t, p.Close())
	})

	t.Run("ThreadSafety", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		var wg sync.WaitGroup
		numGoroutines := 8
		numOperations := 25

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				name := slot(fmt.Sprintf("concurrent-%d", id))
				for j := 0; j < numOperations; j++ {
					assert.NoError(t, p.SaveSlot(name, []byte(fmt.Sprintf("%d", j))))
					_, err := p.LoadSlot(name)
					assert.NoError(t, err)
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < numGoroutines; i++ {
			name := slot(fmt.Sprintf("concurrent-%d", i))
			loaded, err := p.LoadSlot(name)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("%d", numOperations-1), string(loaded))
			_ = p.ClearSlot(name)
		}
	})
}

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFilePersistence_Contract(t *testing.T) {
	persistencetest.RunSlotPersistenceSuite(t, "", func(t *testing.T) persistence.ISlotPersistence {
		fp, err := NewFilePersistence(t.TempDir(), zaptest.NewLogger(t))
		require.NoError(t, err)
		return fp
	})
}

func TestFilePersistence_WritesSlotFile(t *testing.T) {
	dir := t.TempDir()
	fp, err := NewFilePersistence(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = fp.Close() }()

	require.NoError(t, fp.SaveSlot(persistence.DefaultHistorySlot, []byte("[]")))

	path := filepath.Join(dir, persistence.DefaultHistorySlot+".json")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFilePersistence_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	fp, err := NewFilePersistence(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = fp.Close() }()

	require.NoError(t, fp.HealthCheck())
}

func TestFilePersistence_InvalidSlotNames(t *testing.T) {
	fp, err := NewFilePersistence(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = fp.Close() }()

	for _, name := range []string{"", "../escape", "a/b", `a\b`, "..", "."} {
		t.Run(name, func(t *testing.T) {
			err := fp.SaveSlot(name, []byte("x"))
			require.Error(t, err)

			_, err = fp.LoadSlot(name)
			require.Error(t, err)
		})
	}
}

func TestWriteFile_ReplacesAndSyncsDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slot.json")

	require.NoError(t, writeFile(path, []byte("old"), 0o600))
	require.NoError(t, writeFile(path, []byte("new"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	// no temp files survive a successful write
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "slot.json", entries[0].Name())
}

func TestSyncDir(t *testing.T) {
	require.NoError(t, syncDir(t.TempDir()))

	err := syncDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

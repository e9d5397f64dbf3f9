package badger

import (
	"testing"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/logger"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/persistencetest"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBadgerPersistence_Contract(t *testing.T) {
	persistencetest.RunSlotPersistenceSuite(t, "", func(t *testing.T) persistence.ISlotPersistence {
		bp, err := NewBadgerPersistence(t.TempDir(), zaptest.NewLogger(t))
		require.NoError(t, err)
		return bp
	})
}

func TestBadgerPersistence_NilLogger(t *testing.T) {
	bp, err := NewBadgerPersistence(t.TempDir(), nil)
	assert.Nil(t, bp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger is required")
}

// TestBadgerPersistence_SurvivesRestart reopens the same directory, the way a new session would
func TestBadgerPersistence_SurvivesRestart(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bp, err := NewBadgerPersistence(tmpDir, testLogger)
	require.NoError(t, err)
	require.NoError(t, bp.SaveSlot(persistence.DefaultHistorySlot, []byte(`[{"msg":"hello","sig":"SIG1","time":"t1"}]`)))
	require.NoError(t, bp.Close())

	reopened, err := NewBadgerPersistence(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	loaded, err := reopened.LoadSlot(persistence.DefaultHistorySlot)
	require.NoError(t, err)
	assert.Equal(t, `[{"msg":"hello","sig":"SIG1","time":"t1"}]`, string(loaded))
}

func TestBadgerPersistence_ClearSurvivesRestart(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger := zaptest.NewLogger(t)

	bp, err := NewBadgerPersistence(tmpDir, testLogger)
	require.NoError(t, err)
	require.NoError(t, bp.SaveSlot(persistence.DefaultHistorySlot, []byte("[]")))
	require.NoError(t, bp.ClearSlot(persistence.DefaultHistorySlot))
	require.NoError(t, bp.Close())

	reopened, err := NewBadgerPersistence(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	loaded, err := reopened.LoadSlot(persistence.DefaultHistorySlot)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestBadgerPersistence_RejectsUnknownSchema(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := badgerdb.Open(badgerdb.DefaultOptions(tmpDir).WithLogger(nil))
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keySchemaVersion), []byte("v0"))
	}))
	require.NoError(t, db.Close())

	bp, err := NewBadgerPersistence(tmpDir, zaptest.NewLogger(t))
	assert.Nil(t, bp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}

package leveldb

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.uber.org/zap"
)

const keyPrefixSlot = "slot_"

// LevelDBPersistence keeps slots in an embedded LevelDB database.
// Lighter than badger: no value log and no background GC.
type LevelDBPersistence struct {
	db     *leveldb.DB
	logger *zap.Logger
	path   string
	mu     sync.RWMutex
	closed bool
}

// Ensure LevelDBPersistence implements ISlotPersistence
var _ persistence.ISlotPersistence = (*LevelDBPersistence)(nil)

// NewLevelDBPersistence opens (or creates) a LevelDB database under dataDir.
func NewLevelDBPersistence(dataDir string, logger *zap.Logger) (*LevelDBPersistence, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	dbPath, err := filepath.Abs(filepath.Join(dataDir, "slots"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// history slots are small; keep the defaults modest
	options := &opt.Options{
		BlockCacheCapacity: 1 * 1024 * 1024,
		WriteBuffer:        1 * 1024 * 1024,
	}

	db, err := leveldb.OpenFile(dbPath, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database at %s: %w", dbPath, err)
	}

	logger.Sugar().Infow("LevelDB persistence initialized", "path", dbPath)

	return &LevelDBPersistence{
		db:     db,
		logger: logger,
		path:   dbPath,
	}, nil
}

func slotKey(name string) []byte {
	return []byte(keyPrefixSlot + name)
}

// LoadSlot retrieves the slot contents
func (l *LevelDBPersistence) LoadSlot(name string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	data, err := l.db.Get(slotKey(name), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", name, err)
	}

	return data, nil
}

// SaveSlot replaces the slot contents with a synced write
func (l *LevelDBPersistence) SaveSlot(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("slot name cannot be empty")
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if err := l.db.Put(slotKey(name), data, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", name, err)
	}

	return nil
}

// ClearSlot removes the slot. Deleting a missing key is not an error in LevelDB.
func (l *LevelDBPersistence) ClearSlot(name string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if err := l.db.Delete(slotKey(name), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", name, err)
	}

	return nil
}

// Close closes the database
func (l *LevelDBPersistence) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close leveldb database: %w", err)
	}

	l.logger.Sugar().Infow("LevelDB persistence closed", "path", l.path)
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (l *LevelDBPersistence) HealthCheck() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if _, err := l.db.GetProperty("leveldb.stats"); err != nil {
		return fmt.Errorf("leveldb health check failed: %w", err)
	}

	return nil
}

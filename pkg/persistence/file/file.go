package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"go.uber.org/zap"
)

const slotExt = ".json"

// FilePersistence stores each slot as a file in a directory. Writes go through a
// temp file and a rename, so a crash leaves either the old or the new content.
type FilePersistence struct {
	dir    string
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Ensure FilePersistence implements ISlotPersistence
var _ persistence.ISlotPersistence = (*FilePersistence)(nil)

// NewFilePersistence creates dir (0700) if needed and stores slots inside it.
func NewFilePersistence(dir string, logger *zap.Logger) (*FilePersistence, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", absDir, err)
	}

	logger.Sugar().Infow("File persistence initialized", "path", absDir)

	return &FilePersistence{dir: absDir, logger: logger}, nil
}

func (f *FilePersistence) slotPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("slot name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid slot name %q", name)
	}
	return filepath.Join(f.dir, name+slotExt), nil
}

// LoadSlot reads the slot file; a missing file is not an error.
func (f *FilePersistence) LoadSlot(name string) ([]byte, error) {
	path, err := f.slotPath(name)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", name, err)
	}
	return b, nil
}

// SaveSlot writes via a temp file, then atomically replaces the slot file.
func (f *FilePersistence) SaveSlot(name string, data []byte) error {
	path, err := f.slotPath(name)
	if err != nil {
		return err
	}

	// exclusive: two renames racing on one slot would otherwise both succeed
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if err := writeFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", name, err)
	}
	return nil
}

// ClearSlot removes the slot file.
func (f *FilePersistence) ClearSlot(name string) error {
	path, err := f.slotPath(name)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear slot %s: %w", name, err)
	}
	return nil
}

// Close marks the store closed. There are no open handles between calls.
func (f *FilePersistence) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

// HealthCheck verifies the data directory is still there.
func (f *FilePersistence) HealthCheck() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", f.dir)
	}
	return nil
}

// writeFile writes bytes via a temp file in the same directory, then renames it over path.
func writeFile(path string, b []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// no-op once the rename has happened
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	// the rename is only durable once the directory entry is on disk
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("failed to sync directory %s: %w", dir, err)
	}
	return d.Close()
}

package persistence

// DefaultHistorySlot is the slot name the signing history is kept under.
const DefaultHistorySlot = "dss_history"

// ISlotPersistence is a key-value capability over named slots. Each slot holds
// a single opaque value that survives process restarts (except for the memory
// backend). All implementations must be thread-safe.
type ISlotPersistence interface {
	// LoadSlot returns the bytes stored in the named slot.
	// Returns nil, nil if the slot is absent, error only on storage failure.
	LoadSlot(name string) ([]byte, error)

	// SaveSlot replaces the contents of the named slot.
	// The write is as atomic as the backend primitive allows and no more.
	SaveSlot(name string, data []byte) error

	// ClearSlot removes the named slot.
	// Idempotent - returns nil if the slot doesn't exist.
	ClearSlot(name string) error

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}

// Type names the available slot backends.
type Type string

const (
	TypeMemory  Type = "memory"
	TypeBadger  Type = "badger"
	TypeRedis   Type = "redis"
	TypeLevelDB Type = "leveldb"
	TypeFile    Type = "file"
)

// SupportedTypes lists every backend, in the order shown in CLI help
func SupportedTypes() []Type {
	return []Type{TypeBadger, TypeFile, TypeLevelDB, TypeRedis, TypeMemory}
}

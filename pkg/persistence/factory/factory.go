package factory

import (
	"fmt"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/config"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/badger"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/file"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/leveldb"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/redis"
	"go.uber.org/zap"
)

// NewSlotPersistence opens the backend selected by cfg.PersistenceType and health-checks it.
func NewSlotPersistence(cfg *config.ClientConfig, logger *zap.Logger) (persistence.ISlotPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var (
		p   persistence.ISlotPersistence
		err error
	)
	switch cfg.PersistenceType {
	case persistence.TypeMemory:
		p = memory.NewMemoryPersistence()
	case persistence.TypeBadger:
		p, err = badger.NewBadgerPersistence(cfg.DataPath, logger)
	case persistence.TypeLevelDB:
		p, err = leveldb.NewLevelDBPersistence(cfg.DataPath, logger)
	case persistence.TypeFile:
		p, err = file.NewFilePersistence(cfg.DataPath, logger)
	case persistence.TypeRedis:
		p, err = redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported persistence type %q (supported: %s)", cfg.PersistenceType, config.GetSupportedPersistenceTypesString())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s persistence: %w", cfg.PersistenceType, err)
	}

	if err := p.HealthCheck(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%s persistence failed health check: %w", cfg.PersistenceType, err)
	}

	return p, nil
}

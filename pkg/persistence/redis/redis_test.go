package redis

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test if Redis is not reachable
func requireRedis(t *testing.T, keyPrefix string) *RedisPersistence {
	t.Helper()

	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15, // Use DB 15 for tests to avoid conflicts
		KeyPrefix: keyPrefix,
	}

	rp, err := NewRedisPersistence(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}

	return rp
}

func TestRedisPersistence_Contract(t *testing.T) {
	// unique per run so leftovers from an aborted run never collide
	prefix := fmt.Sprintf("test-%d-", time.Now().UnixNano())
	persistencetest.RunSlotPersistenceSuite(t, prefix, func(t *testing.T) persistence.ISlotPersistence {
		return requireRedis(t, "")
	})
}

func TestRedisPersistence_KeyPrefixIsolation(t *testing.T) {
	alice := requireRedis(t, "alice:")
	defer func() { _ = alice.Close() }()
	bob := requireRedis(t, "bob:")
	defer func() { _ = bob.Close() }()

	slot := fmt.Sprintf("isolation-%d", time.Now().UnixNano())
	require.NoError(t, alice.SaveSlot(slot, []byte("alice's history")))
	defer func() { _ = alice.ClearSlot(slot) }()

	loaded, err := bob.LoadSlot(slot)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	loaded, err = alice.LoadSlot(slot)
	require.NoError(t, err)
	assert.Equal(t, "alice's history", string(loaded))
}

func TestNewRedisPersistence_ConfigErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name        string
		cfg         *RedisConfig
		expectedErr string
	}{
		{name: "nil config", cfg: nil, expectedErr: "redis config cannot be nil"},
		{name: "empty address", cfg: &RedisConfig{}, expectedErr: "redis address cannot be empty"},
		{name: "unreachable", cfg: &RedisConfig{Address: "127.0.0.1:1"}, expectedErr: "failed to connect to Redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp, err := NewRedisPersistence(tt.cfg, logger)
			assert.Nil(t, rp)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

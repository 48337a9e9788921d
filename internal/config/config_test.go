package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("API_KEYS", "")
	t.Setenv("GEOFENCE_COOLDOWN", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 15*time.Minute, cfg.GeofenceCooldown)
	assert.Equal(t, 3*time.Second, cfg.OperationTimeout)
	assert.Equal(t, "0 3 * * *", cfg.RetentionSchedule)
	assert.Empty(t, cfg.APIKeys)
}

func TestLoadConfig_PostgresRequiresURL(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_ParsesOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("GEOFENCE_COOLDOWN", "2m")
	t.Setenv("API_KEYS", " key-a , ,key-b")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("WS_MAX_MESSAGE_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.GeofenceCooldown)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.APIKeys)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, int64(4096), cfg.WSMaxMessageSize)
}

func TestLoadConfig_UnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mongo")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestParseSeedUsers(t *testing.T) {
	seeds, err := ParseSeedUsers(" tourist-1:Tourist:Asha Rao, officer-1:authority ,")
	require.NoError(t, err)
	assert.Equal(t, []SeedUser{
		{ID: "tourist-1", Role: "tourist", Name: "Asha Rao"},
		{ID: "officer-1", Role: "authority"},
	}, seeds)

	seeds, err = ParseSeedUsers("")
	require.NoError(t, err)
	assert.Empty(t, seeds)

	_, err = ParseSeedUsers("tourist-1")
	assert.Error(t, err)

	_, err = ParseSeedUsers(":tourist")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidSeedUsers(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SEED_USERS", "broken")

	_, err := LoadConfig()
	assert.Error(t, err)
}

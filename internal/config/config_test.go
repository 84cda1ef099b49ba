package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("SECRETS_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 512, cfg.ImageCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.DBIdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "story_events", cfg.StoryEventsQueue)
	assert.True(t, cfg.RateLimitEnabled())
	assert.Empty(t, cfg.DBPassword)
}

func TestLoadConfigPostgresReadsSecretFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("s3cret\n"), 0o600))
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "stories")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.DBPassword)
	assert.Equal(t, "postgres://postgres:s3cret@db:5432/stories?sslmode=disable", cfg.GetDSN())
	assert.NotContains(t, cfg.RedactedDSN(), "s3cret")
}

func TestLoadConfigPostgresEnvFallback(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DBPassword)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing password", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		t.Setenv("SECRETS_DIR", t.TempDir())
		t.Setenv("DB_PASSWORD", "")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "sqlite")
	})
	t.Run("negative cache", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")
		t.Setenv("IMAGE_CACHE_SIZE", "-1")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestReadSecretEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte("  \n"), 0o600))
	t.Setenv("TOKEN", "ignored")

	_, err := ReadSecret(dir, "token", "TOKEN")
	assert.ErrorContains(t, err, "empty")
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := Config{RateLimitRPS: 0, RateLimitBurst: 5}
	assert.False(t, cfg.RateLimitEnabled())
}

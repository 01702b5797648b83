package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, "urban", cfg.MongoDB)
	assert.Equal(t, uint64(10), cfg.MongoMaxPoolSize)
	assert.Equal(t, 720*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 100, cfg.APIRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.APIRateWindow)
	assert.False(t, cfg.StrictTransitions)
	assert.False(t, cfg.SplitNoteHistory)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("GO_ENV", "production")
	t.Setenv("MONGO_MAX_POOL_SIZE", "25")
	t.Setenv("ISSUE_STRICT_TRANSITIONS", "true")
	t.Setenv("JWT_TTL", "24h")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Production())
	assert.Equal(t, uint64(25), cfg.MongoMaxPoolSize)
	assert.True(t, cfg.StrictTransitions)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.RedisEnabled())
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestNewLogger_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, Config{Env: "production", LogLevel: "warn"})

	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
}

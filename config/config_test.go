package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Empty(t, cfg.Database.MongoURI)
	assert.Equal(t, "healthq_db", cfg.Database.MongoName)
	assert.Equal(t, "healthq.db", cfg.Database.SQLitePath)
	assert.Equal(t, "googleai", cfg.Responder.Provider)
	assert.Equal(t, 30*time.Second, cfg.Responder.Timeout)
	assert.False(t, cfg.Bus.Enabled)
	assert.False(t, cfg.Mail.Enabled)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "10s")
	t.Setenv("BUS_ENABLED", "true")
	t.Setenv("BUS_URL", "nats://broker:4222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.MongoURI)
	assert.Equal(t, "super-secret", cfg.JWT.Secret)
	assert.Equal(t, "openai", cfg.Responder.Provider)
	assert.Equal(t, "sk-test", cfg.Responder.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Responder.Timeout)
	assert.True(t, cfg.Bus.Enabled)
	assert.Equal(t, "nats://broker:4222", cfg.Bus.URL)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "forty-two")
	t.Setenv("CFG_TEST_DUR", "750ms")
	t.Setenv("CFG_TEST_BAD_DUR", "-3s")

	assert.Equal(t, "value", EnvDefault("CFG_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_MISSING", "def"))

	assert.Equal(t, 42, EnvIntDefault("CFG_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_TEST_BAD_INT", 1))

	assert.Equal(t, 750*time.Millisecond, EnvDurationDefault("CFG_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("CFG_TEST_BAD_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("CFG_TEST_MISSING", time.Second))
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("SERVICE_NAME", "order")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.Equal(t, "order", cfg.ServiceName)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []byte("s3cret"), cfg.JWTAccessSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestRequire(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Require("x", "A", "y", "B"))
	assert.Equal(t, []string{"A", "C"}, Missing("", "A", "y", "B", " ", "C"))
	assert.EqualError(t, Require("", "DATABASE_URL", "", "JWT_SECRET"), "missing required env DATABASE_URL, JWT_SECRET")
}

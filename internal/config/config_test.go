package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Reads values from the yaml file", func(t *testing.T) {
		// Given: a config file overriding a few keys
		path := writeConfig(t, `
log-level: debug
socket-port: "7000"
redis:
  host: redis
dispatcher:
  driver: redis
room:
  idle-timeout: 5m
`)

		// When: loading it
		conf, err := Load(path)

		// Then: file values win and defaults fill the rest
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "7000", conf.SocketPort)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "redis:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, DispatcherRedis, conf.Dispatcher.Driver)
		assert.Equal(t, 5*time.Minute, conf.Room.IdleTimeout)
		assert.Equal(t, 6, conf.Room.CodeLength)
		assert.Equal(t, 32, conf.WebSocket.SendBuffer)
	})

	t.Run("Missing file falls back to the environment", func(t *testing.T) {
		// Given: no config file and an env override
		t.Setenv("HTTP_PORT", "9999")

		// When: loading a path that does not exist
		conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		// Then: defaults and env are used
		require.NoError(t, err)
		assert.Equal(t, "9999", conf.HTTPPort)
		assert.Equal(t, DispatcherMemory, conf.Dispatcher.Driver)
		assert.Equal(t, time.Duration(0), conf.Room.IdleTimeout)
		assert.Equal(t, 30*time.Second, conf.WebSocket.PingInterval)
	})

	t.Run("Unknown dispatcher is rejected", func(t *testing.T) {
		path := writeConfig(t, "dispatcher:\n  driver: kafka\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrUnknownDispatcher)
	})

	t.Run("MustLoad panics on a broken file", func(t *testing.T) {
		path := writeConfig(t, "room: [")

		assert.Panics(t, func() { MustLoad(path) })
	})
}

package flashnote

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))
	t.Setenv("FLASHNOTE_AES_KEY", key)

	t.Run("run with defaults", func(t *testing.T) {
		cmd, config, err := Parse([]string{"run"})
		require.NoError(t, err)
		assert.Equal(t, "run", cmd.Name())
		assert.Equal(t, BackendPostgres, config.Backend)
		assert.Equal(t, "8080", config.ServerPort)
		assert.Equal(t, key, config.AESKey)
	})

	t.Run("backend and port flags", func(t *testing.T) {
		cmd, config, err := Parse([]string{"-backend", "memory", "-port", "9090", "migrate"})
		require.NoError(t, err)
		assert.Equal(t, "migrate", cmd.Name())
		assert.Equal(t, BackendMemory, config.Backend)
		assert.Equal(t, "9090", config.ServerPort)
	})

	t.Run("postgres port feeds the default DSN", func(t *testing.T) {
		_, config, err := Parse([]string{"-postgres-port", "5433", "run"})
		require.NoError(t, err)
		assert.Contains(t, config.PostgresDSN, ":5433/")
	})

	t.Run("subcommand is required", func(t *testing.T) {
		_, _, err := Parse([]string{"-backend", "memory"})
		assert.Error(t, err)
	})

	t.Run("unknown subcommand", func(t *testing.T) {
		_, _, err := Parse([]string{"serve"})
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, _, err := Parse([]string{"-backend", "sqlite", "run"})
		assert.Error(t, err)
	})

	t.Run("missing AES key", func(t *testing.T) {
		t.Setenv("FLASHNOTE_AES_KEY", "")
		_, _, err := Parse([]string{"run"})
		assert.Error(t, err)
	})
}

package testutil

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	p := env.Path("a", "b.txt")
	assert.Equal(t, filepath.Join(env.RootDir(), "a", "b.txt"), p)
	assert.Equal(t, env.RootDir(), env.Path())
}

func TestTestEnv_WriteReadFile(t *testing.T) {
	env := NewTestEnv(t)

	path := env.WriteFileString("nested/dir/experiment.yaml", "number: 42\n")
	assert.Equal(t, env.Path("nested", "dir", "experiment.yaml"), path)
	assert.True(t, env.FileExists("nested/dir/experiment.yaml"))
	assert.False(t, env.FileExists("missing.yaml"))
	assert.Equal(t, "number: 42\n", string(env.ReadFile("nested/dir/experiment.yaml")))
}

func TestTestEnv_String(t *testing.T) {
	env := NewTestEnv(t)
	assert.Contains(t, env.String(), env.RootDir())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(t, rec, 201, map[string]any{"id": 7})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}

func TestSetTestConfig(t *testing.T) {
	cfg := SetTestConfig(t)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "test-tmdb-key", cfg.TMDB.APIKey)
	assert.Equal(t, 10, cfg.Enrichment.CastLimit)
}

func TestSetViperValue(t *testing.T) {
	ResetConfig(t)
	viper.Set("server.addr", ":9000")

	t.Run("override", func(t *testing.T) {
		SetViperValue(t, "server.addr", ":9999")
		assert.Equal(t, ":9999", viper.GetString("server.addr"))
	})

	assert.Equal(t, ":9000", viper.GetString("server.addr"))
}

func TestSetupTestCacheAndLedger(t *testing.T) {
	ResetConfig(t)
	env := NewTestEnv(t)

	cachePath := SetupTestCache(t, env)
	assert.Equal(t, cachePath, viper.GetString("cache.dbfile"))
	assert.Equal(t, "24h", viper.GetString("cache.ttl"))

	ledgerPath := SetupLedger(t, env)
	assert.True(t, viper.GetBool("ledger.enabled"))
	assert.Equal(t, ledgerPath, viper.GetString("ledger.dbfile"))
}

package testutil

import (
	"testing"

	"github.com/lepinkainen/bmn/internal/config"
	"github.com/spf13/viper"
)

// ResetConfig resets viper, registers the application defaults and
// schedules another reset when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	config.SetDefaults()
	t.Cleanup(viper.Reset)
}

// SetTestConfig resets viper and fills in credentials good enough for Validate.
func SetTestConfig(t *testing.T) *config.Config {
	t.Helper()

	ResetConfig(t)
	viper.Set("tmdb.apikey", "test-tmdb-key")
	viper.Set("wordpress.username", "curator")
	viper.Set("wordpress.password", "secret")
	return config.Load()
}

// SetViperValue sets a viper configuration value and restores the old one on cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)
	viper.Set(key, value)

	t.Cleanup(func() {
		// viper has no Unset, so an originally unset key stays set
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestCache points the persistent cache at a database inside env.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("cache", "test-cache.db")
	env.WriteFile("cache/.keep", nil)
	viper.Set("cache.dbfile", dbPath)
	viper.Set("cache.ttl", "24h")
	return dbPath
}

// SetupLedger enables the materialization ledger in a database inside env.
func SetupLedger(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("bmn.db")
	SetViperValue(t, "ledger.enabled", true)
	SetViperValue(t, "ledger.dbfile", dbPath)
	return dbPath
}

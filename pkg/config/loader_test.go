package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_MergesEnvironmentFileOverBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: db.internal
  port: 5432
  name: shiftdesk
relay:
  delivery_delay: 5s
matching:
  radius_miles: 50
`)
	writeFile(t, dir, "staging.yaml", `
db:
  port: 6543
relay:
  delivery_delay: 1s
`)

	cfg, err := Load(dir, "staging")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "shiftdesk", cfg.DB.Name)
	assert.Equal(t, time.Second, cfg.Relay.DeliveryDelay)
	assert.Equal(t, 50.0, cfg.Matching.RadiusMiles)
	// untouched keys keep their defaults
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, int64(5), cfg.Relay.MaxRetries)
}

func TestLoad_ExpandsPlaceholdersAndEnvWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
jwt:
  secret: ${TEST_SHIFTDESK_SECRET}
relay:
  base_url: http://relay.local
`)
	t.Setenv("TEST_SHIFTDESK_SECRET", "from-placeholder")
	t.Setenv("HOST_MAC", "http://mac.local:5000")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "from-placeholder", cfg.JWT.Secret)
	assert.Equal(t, "http://mac.local:5000", cfg.Relay.BaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_MissingBaseFile(t *testing.T) {
	_, err := Load(t.TempDir(), "local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base.yaml")
}

func TestMergeMaps_Nested(t *testing.T) {
	dst := map[string]interface{}{
		"db": map[string]interface{}{"host": "a", "port": 1},
		"x":  "keep",
	}
	src := map[string]interface{}{
		"db": map[string]interface{}{"port": 2},
	}

	got := mergeMaps(dst, src)

	assert.Equal(t, map[string]interface{}{
		"db": map[string]interface{}{"host": "a", "port": 2},
		"x":  "keep",
	}, got)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "n"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", c.DSN())
}

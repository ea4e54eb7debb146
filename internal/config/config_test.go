package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv blanks the variables Load falls back to.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TEXT2SQL_SCHEMA", "TEXT2SQL_MODEL_PROVIDER", "TEXT2SQL_MODEL_NAME", "TEXT2SQL_ADDR", "PORT",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "HF_TOKEN", "HUGGINGFACE_API_TOKEN",
		"PGHOST", "POSTGRES_HOST", "PGPORT", "POSTGRES_PORT", "PGDATABASE", "POSTGRES_DB",
		"PGUSER", "POSTGRES_USER", "PGPASSWORD", "POSTGRES_PASSWORD", "PGSSLMODE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "text2sql.yaml", `
schema: examples/ecommerce.yaml
model:
  provider: huggingface
  api_key: from-file
  timeout: 3s
cache:
  size: 10
batch:
  concurrency: 8
server:
  addr: ":9000"
connection:
  host: db.local
  database: shop
  user: reader
schemas: [public, sales]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "examples/ecommerce.yaml", cfg.Schema)
	assert.Equal(t, "huggingface", cfg.Model.Provider)
	assert.Equal(t, "from-file", cfg.Model.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 10, cfg.Cache.Size)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5432, cfg.Connection.Port)
	assert.Equal(t, "disable", cfg.Connection.SSLMode)
	assert.Equal(t, []string{"public", "sales"}, cfg.Schemas)
	assert.NoError(t, cfg.ValidateForConvert())
	assert.NoError(t, cfg.ValidateForIntrospect())
	assert.Equal(t, "host=db.local port=5432 dbname=shop user=reader password= sslmode=disable", cfg.Connection.DSN())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultModelTimeout, cfg.Model.Timeout)
	assert.Equal(t, DefaultConcurrency, cfg.Batch.Concurrency)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 0, cfg.Cache.Size)
	assert.Equal(t, []string{"public"}, cfg.Schemas)
}

func TestLoadEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEXT2SQL_SCHEMA", "/tmp/schema.yaml")
	t.Setenv("TEXT2SQL_MODEL_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("PORT", "7070")
	t.Setenv("PGHOST", "pg.local")
	t.Setenv("PGPORT", "6543")

	path := writeFile(t, "c.yaml", "connection:\n  host: yaml-wins\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/schema.yaml", cfg.Schema)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "google-key", cfg.Model.APIKey)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "yaml-wins", cfg.Connection.Host)
	assert.Equal(t, 6543, cfg.Connection.Port)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeFile(t, "bad.yaml", "model: ["))
	assert.ErrorContains(t, err, "parsing config file")

	_, err = Load(writeFile(t, "p.yaml", "model:\n  provider: oracle\n"))
	assert.ErrorContains(t, err, "not supported")

	_, err = Load(writeFile(t, "n.yaml", "cache:\n  size: -1\n"))
	assert.ErrorContains(t, err, "cache.size")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateForConvert())
	assert.Error(t, cfg.ValidateForIntrospect())
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "TEXT2SQL_DOTENV_PROBE=loaded\n")
	t.Setenv("TEXT2SQL_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("TEXT2SQL_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "loaded", os.Getenv("TEXT2SQL_DOTENV_PROBE"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
database:
  host: localhost
  port: 5432
  user: dealdesk
  password: filepass
  name: dealdesk
minio:
  endpoint: localhost:9000
  bucketName: documents
ai:
  provider: openai
  model: gpt-4o-2024-08-06
auth:
  apiKeys:
    acme-fund: sk-acme
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("reads yaml", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, sampleYAML))
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver, "driver defaults to postgres")
		assert.Equal(t, "documents", cfg.Minio.BucketName)
		assert.Equal(t, "sk-acme", cfg.Auth.APIKeys["acme-fund"])
	})

	t.Run("env overrides secrets", func(t *testing.T) {
		t.Setenv("DB_PASSWORD", "envpass")
		t.Setenv("OPENAI_API_KEY", "sk-env")
		cfg, err := Load(writeConfig(t, sampleYAML))
		require.NoError(t, err)
		assert.Equal(t, "envpass", cfg.Database.Password)
		assert.Equal(t, "sk-env", cfg.AI.APIKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [broken"))
		assert.Error(t, err)
	})
}

func TestDSNHelpers(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t,
		"host=localhost port=5432 user=dealdesk password=filepass dbname=dealdesk sslmode=disable",
		cfg.PostgresDSN())
	assert.Equal(t,
		"dealdesk:filepass@tcp(localhost:5432)/dealdesk?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
}

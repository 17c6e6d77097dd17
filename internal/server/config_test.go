package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  name: finance-mcp
  transport: http
  address: ":9090"
databricks:
  host: https://acme.cloud.databricks.com
  token: dapi-file
  warehouse_id: wh-1
  poll_interval: 5s
  max_polls: 12
tools:
  read_only: false
  descriptions:
    databricks_execute_sql: Run SQL against the finance warehouse.
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "finance-mcp", cfg.Server.Name)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "https://acme.cloud.databricks.com", cfg.Databricks.Host)
	assert.Equal(t, "dapi-file", cfg.Databricks.Token)
	assert.Equal(t, "wh-1", cfg.Databricks.WarehouseID)
	assert.Equal(t, 5*time.Second, cfg.Databricks.PollInterval)
	assert.Equal(t, 12, cfg.Databricks.MaxPolls)
	assert.False(t, cfg.Tools.ReadOnlyEnabled())
	assert.Equal(t, "Run SQL against the finance warehouse.",
		cfg.Tools.Descriptions["databricks_execute_sql"])
}

func TestLoadConfig_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_DBX_TOKEN", "dapi-from-env")
	path := writeConfigFile(t, `
databricks:
  host: https://acme.cloud.databricks.com
  token: ${TEST_DBX_TOKEN}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dapi-from-env", cfg.Databricks.Token)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestApplyEnv_OverridesFileValues(t *testing.T) {
	t.Setenv("DATABRICKS_HOST", "https://env.cloud.databricks.com")
	t.Setenv("DATABRICKS_TOKEN", "dapi-env")
	t.Setenv("DATABRICKS_SQL_WAREHOUSE_ID", "wh-env")

	cfg := Config{}
	cfg.Databricks.Host = "https://file.cloud.databricks.com"
	cfg.Databricks.Token = "dapi-file"
	cfg.ApplyEnv()

	assert.Equal(t, "https://env.cloud.databricks.com", cfg.Databricks.Host)
	assert.Equal(t, "dapi-env", cfg.Databricks.Token)
	assert.Equal(t, "wh-env", cfg.Databricks.WarehouseID)
}

func TestApplyEnv_EmptyValuesIgnored(t *testing.T) {
	t.Setenv("DATABRICKS_HOST", "")

	cfg := Config{}
	cfg.Databricks.Host = "https://file.cloud.databricks.com"
	cfg.ApplyEnv()

	assert.Equal(t, "https://file.cloud.databricks.com", cfg.Databricks.Host)
}

func TestToolsConfig_ReadOnlyDefaultsTrue(t *testing.T) {
	assert.True(t, ToolsConfig{}.ReadOnlyEnabled())

	enabled := true
	assert.True(t, ToolsConfig{ReadOnly: &enabled}.ReadOnlyEnabled())

	disabled := false
	assert.False(t, ToolsConfig{ReadOnly: &disabled}.ReadOnlyEnabled())
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, "mcp-databricks", cfg.Server.Name)
	assert.Equal(t, Version, cfg.Server.Version)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestConfig_ValidateTransport(t *testing.T) {
	cfg := Config{}
	cfg.Server.Transport = "websocket"
	require.Error(t, cfg.validate())

	cfg.Server.Transport = TransportStdio
	require.NoError(t, cfg.validate())

	cfg.Server.Transport = TransportHTTP
	require.NoError(t, cfg.validate())
}

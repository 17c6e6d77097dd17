package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the complete server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Databricks DatabricksConfig `yaml:"databricks"`
	Tools      ToolsConfig      `yaml:"tools"`
}

// ServerConfig configures the MCP server and its transport.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "http"
	Address   string `yaml:"address"`
}

// DatabricksConfig configures the statement execution client.
type DatabricksConfig struct {
	Host         string        `yaml:"host"`
	AuthType     string        `yaml:"auth_type"` // "pat", "oauth"
	Token        string        `yaml:"token"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	WarehouseID  string        `yaml:"warehouse_id"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`
}

// ToolsConfig configures the toolkit.
type ToolsConfig struct {
	// ReadOnly enables the write-statement denylist. Defaults to true.
	ReadOnly     *bool             `yaml:"read_only"`
	Descriptions map[string]string `yaml:"descriptions"`
}

// ReadOnlyEnabled resolves the read-only setting with its default.
func (t ToolsConfig) ReadOnlyEnabled() bool {
	return t.ReadOnly == nil || *t.ReadOnly
}

// LoadConfig reads a YAML config file, expanding ${VAR} references from the
// environment before parsing.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's -config flag
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// envOverrides maps environment variables onto config fields. Environment
// values take precedence over the file so deployments can inject credentials
// without touching the config on disk.
var envOverrides = []struct {
	name  string
	apply func(*Config, string)
}{
	{"DATABRICKS_HOST", func(c *Config, v string) { c.Databricks.Host = v }},
	{"DATABRICKS_AUTH_TYPE", func(c *Config, v string) { c.Databricks.AuthType = v }},
	{"DATABRICKS_TOKEN", func(c *Config, v string) { c.Databricks.Token = v }},
	{"DATABRICKS_CLIENT_ID", func(c *Config, v string) { c.Databricks.ClientID = v }},
	{"DATABRICKS_CLIENT_SECRET", func(c *Config, v string) { c.Databricks.ClientSecret = v }},
	{"DATABRICKS_SQL_WAREHOUSE_ID", func(c *Config, v string) { c.Databricks.WarehouseID = v }},
}

// ApplyEnv overlays environment variables onto the configuration.
func (c *Config) ApplyEnv() {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(c, v)
		}
	}
}

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "mcp-databricks"
	}
	if c.Server.Version == "" {
		c.Server.Version = Version
	}
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStdio
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
}

// validate checks the transport selection; client-level validation happens in
// client.New.
func (c *Config) validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
		return nil
	default:
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}
}

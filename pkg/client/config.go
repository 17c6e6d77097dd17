package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// AuthType selects how the client authenticates against the workspace.
type AuthType string

// Supported authentication types.
const (
	// AuthPAT uses a personal access token from Config.Token.
	AuthPAT AuthType = "pat"

	// AuthOAuth uses the OAuth machine-to-machine client-credentials flow
	// with Config.ClientID and Config.ClientSecret.
	AuthOAuth AuthType = "oauth"
)

const (
	// defaultTimeout bounds each individual HTTP request.
	defaultTimeout = 30 * time.Second

	// defaultPollInterval is the fixed wait between status checks.
	defaultPollInterval = 10 * time.Second

	// defaultMaxPolls caps the number of status checks per statement.
	// 60 polls at 10s gives a 10-minute ceiling.
	defaultMaxPolls = 60
)

// Config holds the statement execution client configuration.
type Config struct {
	// Host is the workspace base URL, e.g. https://acme.cloud.databricks.com.
	Host string

	// AuthType selects PAT or OAuth authentication. Defaults to PAT when a
	// token is set, OAuth when client credentials are set.
	AuthType AuthType

	// Token is a personal access token.
	Token string

	// ClientID and ClientSecret are OAuth M2M service principal credentials.
	ClientID     string
	ClientSecret string

	// WarehouseID is the default SQL warehouse. Individual executions may
	// override it.
	WarehouseID string

	// Timeout bounds each submit, poll, and fetch request.
	Timeout time.Duration

	// PollInterval is the fixed wait between status checks.
	PollInterval time.Duration

	// MaxPolls is the status-check budget per statement.
	MaxPolls int

	// HTTPClient overrides the transport. Shared across all requests.
	HTTPClient *http.Client

	// Clock overrides the wall clock. Tests inject a fake.
	Clock clockwork.Clock

	// Logger receives debug-level execution traces. Defaults to slog.Default.
	Logger *slog.Logger
}

// validate checks required fields and resolves the effective auth type.
func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if !strings.HasPrefix(c.Host, "http://") && !strings.HasPrefix(c.Host, "https://") {
		return fmt.Errorf("host must be an http(s) URL, got %q", c.Host)
	}

	if c.AuthType == "" {
		if c.ClientID != "" || c.ClientSecret != "" {
			c.AuthType = AuthOAuth
		} else {
			c.AuthType = AuthPAT
		}
	}

	switch c.AuthType {
	case AuthPAT:
		if c.Token == "" {
			return fmt.Errorf("token is required for pat auth")
		}
	case AuthOAuth:
		if c.ClientID == "" || c.ClientSecret == "" {
			return fmt.Errorf("client_id and client_secret are required for oauth auth")
		}
	default:
		return fmt.Errorf("unknown auth type %q", c.AuthType)
	}

	return nil
}

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	c.Host = strings.TrimRight(c.Host, "/")
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxPolls == 0 {
		c.MaxPolls = defaultMaxPolls
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

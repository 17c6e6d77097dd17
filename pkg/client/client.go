// Package client implements a client for the Databricks SQL Statement
// Execution API: statements are submitted asynchronously, polled on a fixed
// cadence until terminal, and their chunked results reassembled into a single
// envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"
)

// statementsPath is the statement execution endpoint.
const statementsPath = "/api/2.0/sql/statements"

// Client executes SQL statements against a Databricks SQL warehouse. It holds
// no per-statement state; a single Client may serve concurrent executions,
// each owning its own statement handle and poll budget.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens tokenSource
	clock  clockwork.Clock
	log    *slog.Logger
}

// New creates a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	cfg.applyDefaults()

	c := &Client{
		cfg:   cfg,
		http:  cfg.HTTPClient,
		clock: cfg.Clock,
		log:   cfg.Logger,
	}

	switch cfg.AuthType {
	case AuthOAuth:
		c.tokens = newOAuthTokenSource(cfg.Host, cfg.ClientID, cfg.ClientSecret, cfg.HTTPClient, cfg.Clock)
	default:
		c.tokens = &staticTokenSource{token: cfg.Token}
	}

	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// doJSON performs one API request and decodes the response into out. A non-2xx
// response is surfaced as a transport-kind fault, carrying the upstream error
// body when one is parseable.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return transportErr("encoding request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Host+path, reqBody)
	if err != nil {
		return transportErr("building request: %v", err)
	}

	token, err := c.tokens.BearerToken(ctx)
	if err != nil {
		return transportErr("resolving auth token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportErr("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr("reading response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Message != "" {
			return &Error{Kind: KindTransport, Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, ae.Message), Code: ae.ErrorCode}
		}
		return transportErr("HTTP %d from %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return transportErr("decoding response: %v", err)
		}
	}
	return nil
}

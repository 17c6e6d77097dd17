// Package server assembles the MCP server: configuration, statement execution
// client, toolkit, and the stdio or streamable-HTTP transport.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/client"
	"github.com/txn2/mcp-databricks/pkg/tools"
)

// Version is set at build time.
var Version = "dev"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server wires the execution client and toolkit into an MCP server.
type Server struct {
	log    *slog.Logger
	cfg    Config
	mcp    *mcp.Server
	client *client.Client
}

// New builds a Server from the given configuration.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c, err := client.New(client.Config{
		Host:         cfg.Databricks.Host,
		AuthType:     client.AuthType(cfg.Databricks.AuthType),
		Token:        cfg.Databricks.Token,
		ClientID:     cfg.Databricks.ClientID,
		ClientSecret: cfg.Databricks.ClientSecret,
		WarehouseID:  cfg.Databricks.WarehouseID,
		Timeout:      cfg.Databricks.Timeout,
		PollInterval: cfg.Databricks.PollInterval,
		MaxPolls:     cfg.Databricks.MaxPolls,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating databricks client: %w", err)
	}

	toolkit := tools.NewToolkit(c, toolkitOptions(cfg.Tools)...)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	mcpServer.AddReceivingMiddleware(toolLoggingMiddleware(log))
	toolkit.RegisterAll(mcpServer)
	toolkit.RegisterResources(mcpServer)

	return &Server{
		log:    log,
		cfg:    cfg,
		mcp:    mcpServer,
		client: c,
	}, nil
}

// toolkitOptions translates the tools config into toolkit options.
func toolkitOptions(cfg ToolsConfig) []tools.Option {
	var opts []tools.Option
	if cfg.ReadOnlyEnabled() {
		opts = append(opts, tools.WithQueryInterceptor(tools.NewReadOnlyInterceptor()))
	}
	if len(cfg.Descriptions) > 0 {
		overrides := make(map[tools.ToolName]string, len(cfg.Descriptions))
		for name, desc := range cfg.Descriptions {
			overrides[tools.ToolName(name)] = desc
		}
		opts = append(opts, tools.WithDescriptions(overrides))
	}
	return opts
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves MCP over the configured transport until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Server.Transport {
	case TransportHTTP:
		return s.runHTTP(ctx)
	default:
		s.log.Info("serving mcp over stdio", "name", s.cfg.Server.Name)
		if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil
	}
}

// runHTTP serves MCP over the streamable HTTP transport with health probes.
func (s *Server) runHTTP(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, &mcp.StreamableHTTPOptions{Stateless: true}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.log.Error("writing healthz response", "error", err)
		}
	})

	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- fmt.Errorf("http transport: %w", err)
		}
	}()

	s.log.Info("serving mcp over streamable http", "address", s.cfg.Server.Address)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	case err := <-serveErrCh:
		return err
	}
}

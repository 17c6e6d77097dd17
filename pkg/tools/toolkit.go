// Package tools provides the MCP toolkit for the Databricks statement
// execution client: tool registration, SQL generation for the catalog
// operations, and pre-submission query interception.
package tools

import (
	"context"
	"fmt"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/client"
	"github.com/txn2/mcp-databricks/pkg/format"
)

// ToolName identifies a tool provided by this toolkit.
type ToolName string

// Tool names.
const (
	ToolExecuteSQL    ToolName = "databricks_execute_sql"
	ToolListCatalogs  ToolName = "databricks_list_catalogs"
	ToolListSchemas   ToolName = "databricks_list_schemas"
	ToolListTables    ToolName = "databricks_list_tables"
	ToolDescribeTable ToolName = "databricks_describe_table"
)

// defaultDescriptions are the tool descriptions unless overridden.
var defaultDescriptions = map[ToolName]string{
	ToolExecuteSQL:    "Execute a SQL statement on a Databricks SQL warehouse and return the results as text.",
	ToolListCatalogs:  "List all catalogs available in the Databricks workspace.",
	ToolListSchemas:   "List all schemas in a Databricks catalog.",
	ToolListTables:    "List all tables in a schema.",
	ToolDescribeTable: "Describe a table's columns and types. Use a fully qualified name, e.g. catalog.schema.table.",
}

// identifierPattern restricts catalog object names interpolated into
// generated SQL to dotted identifiers.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// QueryInterceptor inspects or rewrites SQL before submission. Returning an
// error rejects the statement without any network call.
type QueryInterceptor interface {
	Intercept(ctx context.Context, sql string, tool ToolName) (string, error)
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithQueryInterceptor adds a pre-submission interceptor. Interceptors run in
// the order they were added.
func WithQueryInterceptor(qi QueryInterceptor) Option {
	return func(t *Toolkit) {
		t.interceptors = append(t.interceptors, qi)
	}
}

// WithDescriptions overrides tool descriptions by name.
func WithDescriptions(descriptions map[ToolName]string) Option {
	return func(t *Toolkit) {
		for name, desc := range descriptions {
			t.descriptions[name] = desc
		}
	}
}

// Toolkit registers the Databricks SQL tools with an MCP server. Every tool
// builds a SQL string, runs it through the interceptors and the execution
// client, and renders the outcome with the formatter; statement-level faults
// are returned as error text inside the tool result, never as protocol errors.
type Toolkit struct {
	client       *client.Client
	interceptors []QueryInterceptor
	descriptions map[ToolName]string
}

// NewToolkit creates a toolkit bound to the given execution client.
func NewToolkit(c *client.Client, opts ...Option) *Toolkit {
	t := &Toolkit{
		client:       c,
		descriptions: make(map[ToolName]string, len(defaultDescriptions)),
	}
	for name, desc := range defaultDescriptions {
		t.descriptions[name] = desc
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tools returns the names of all tools this toolkit registers.
func (*Toolkit) Tools() []ToolName {
	return []ToolName{
		ToolExecuteSQL,
		ToolListCatalogs,
		ToolListSchemas,
		ToolListTables,
		ToolDescribeTable,
	}
}

// ExecuteSQLInput is the input for databricks_execute_sql.
type ExecuteSQLInput struct {
	SQL         string `json:"sql"`
	WarehouseID string `json:"warehouse_id,omitempty"`
}

// ListCatalogsInput is the input for databricks_list_catalogs.
type ListCatalogsInput struct{}

// ListSchemasInput is the input for databricks_list_schemas.
type ListSchemasInput struct {
	Catalog string `json:"catalog"`
}

// ListTablesInput is the input for databricks_list_tables.
type ListTablesInput struct {
	Schema string `json:"schema"`
}

// DescribeTableInput is the input for databricks_describe_table.
type DescribeTableInput struct {
	Table string `json:"table"`
}

// RegisterAll registers every tool with the MCP server.
func (t *Toolkit) RegisterAll(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        string(ToolExecuteSQL),
		Description: t.descriptions[ToolExecuteSQL],
	}, t.handleExecuteSQL)

	mcp.AddTool(s, &mcp.Tool{
		Name:        string(ToolListCatalogs),
		Description: t.descriptions[ToolListCatalogs],
	}, t.handleListCatalogs)

	mcp.AddTool(s, &mcp.Tool{
		Name:        string(ToolListSchemas),
		Description: t.descriptions[ToolListSchemas],
	}, t.handleListSchemas)

	mcp.AddTool(s, &mcp.Tool{
		Name:        string(ToolListTables),
		Description: t.descriptions[ToolListTables],
	}, t.handleListTables)

	mcp.AddTool(s, &mcp.Tool{
		Name:        string(ToolDescribeTable),
		Description: t.descriptions[ToolDescribeTable],
	}, t.handleDescribeTable)
}

func (t *Toolkit) handleExecuteSQL(ctx context.Context, _ *mcp.CallToolRequest, input ExecuteSQLInput) (*mcp.CallToolResult, any, error) {
	if input.SQL == "" {
		return errorResult("sql is required"), nil, nil
	}
	return t.run(ctx, input.SQL, input.WarehouseID, ToolExecuteSQL), nil, nil
}

func (t *Toolkit) handleListCatalogs(ctx context.Context, _ *mcp.CallToolRequest, _ ListCatalogsInput) (*mcp.CallToolResult, any, error) {
	return t.run(ctx, "SHOW CATALOGS", "", ToolListCatalogs), nil, nil
}

func (t *Toolkit) handleListSchemas(ctx context.Context, _ *mcp.CallToolRequest, input ListSchemasInput) (*mcp.CallToolResult, any, error) {
	if err := validateIdentifier(input.Catalog); err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return t.run(ctx, "SHOW SCHEMAS IN "+input.Catalog, "", ToolListSchemas), nil, nil
}

func (t *Toolkit) handleListTables(ctx context.Context, _ *mcp.CallToolRequest, input ListTablesInput) (*mcp.CallToolResult, any, error) {
	if err := validateIdentifier(input.Schema); err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return t.run(ctx, "SHOW TABLES IN "+input.Schema, "", ToolListTables), nil, nil
}

func (t *Toolkit) handleDescribeTable(ctx context.Context, _ *mcp.CallToolRequest, input DescribeTableInput) (*mcp.CallToolResult, any, error) {
	if err := validateIdentifier(input.Table); err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return t.run(ctx, "DESCRIBE TABLE "+input.Table, "", ToolDescribeTable), nil, nil
}

// run drives one statement through interception, execution, and formatting.
func (t *Toolkit) run(ctx context.Context, sql, warehouseID string, tool ToolName) *mcp.CallToolResult {
	sql, err := t.intercept(ctx, sql, tool)
	if err != nil {
		rejected := &client.Error{Kind: client.KindRejected, Message: err.Error()}
		return errorResult(format.Fault(rejected))
	}

	res, err := t.client.Execute(ctx, sql, warehouseID)
	if err != nil {
		return errorResult(format.Fault(err))
	}
	return textResult(format.Query(res))
}

// intercept runs the SQL through every configured interceptor in order.
func (t *Toolkit) intercept(ctx context.Context, sql string, tool ToolName) (string, error) {
	for _, qi := range t.interceptors {
		out, err := qi.Intercept(ctx, sql, tool)
		if err != nil {
			return "", err
		}
		sql = out
	}
	return sql, nil
}

// validateIdentifier rejects catalog object names that are not dotted
// identifiers, keeping the generated SQL free of injected clauses.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("a catalog object name is required")
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: only letters, digits, underscores, and dots are allowed", name)
	}
	return nil
}

// textResult creates a success CallToolResult with plain text content.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult creates an error CallToolResult.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

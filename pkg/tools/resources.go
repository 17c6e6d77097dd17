package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"

	"github.com/txn2/mcp-databricks/pkg/format"
)

// tableTemplateURI is the resource template for table schemas.
const tableTemplateURI = "databricks://{catalog}/{schema}/{table}"

// RegisterResources registers the table schema resource template with the
// MCP server.
func (t *Toolkit) RegisterResources(s *mcp.Server) {
	s.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: tableTemplateURI,
		Name:        "Table Schema",
		Description: "Column names and types for a table, resolved via DESCRIBE TABLE.",
		MIMEType:    "text/plain",
	}, t.handleTableResource)
}

// handleTableResource handles databricks://{catalog}/{schema}/{table} reads.
func (t *Toolkit) handleTableResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	vars, err := parseTemplateVars(tableTemplateURI, uri)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	fullName := vars["catalog"] + "." + vars["schema"] + "." + vars["table"]
	if err := validateIdentifier(fullName); err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	res, err := t.client.Execute(ctx, "DESCRIBE TABLE "+fullName, "")
	if err != nil {
		return nil, fmt.Errorf("describing table %s: %w", fullName, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     format.Query(res),
		}},
	}, nil
}

// parseTemplateVars extracts named variables from a URI using a URI template.
func parseTemplateVars(templateStr, uri string) (map[string]string, error) {
	tmpl, err := uritemplate.New(templateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", templateStr, err)
	}

	match := tmpl.Match(uri)
	if match == nil {
		return nil, fmt.Errorf("uri %q does not match template %q", uri, templateStr)
	}

	result := make(map[string]string)
	for _, name := range tmpl.Varnames() {
		result[name] = match.Get(name).String()
	}
	return result, nil
}

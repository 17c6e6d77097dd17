// Package format renders statement execution results and faults as plain
// text. All functions are pure projections: they never mutate the envelope
// and always return a renderable string.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/txn2/mcp-databricks/pkg/client"
)

// nullToken is rendered for missing scalar values so every line keeps the
// full column count.
const nullToken = "NULL"

// Query renders a result envelope as a table: column names as the header, one
// line per row, and a row-count trailer. A zero-row result renders the header
// with an explicit empty indicator rather than a blank body.
func Query(res *client.Result) string {
	if res == nil || len(res.Columns) == 0 {
		return "No columns found in the result."
	}

	header := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col.Name
	}

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, row := range res.Rows {
		table.Append(renderRow(row, len(res.Columns)))
	}
	table.Render()

	if len(res.Rows) == 0 {
		buf.WriteString("No data rows found.\n")
	}
	fmt.Fprintf(&buf, "Total rows: %d", len(res.Rows))

	return buf.String()
}

// Fault renders any execution fault as a single error line, including the
// upstream message when present.
func Fault(err error) string {
	if err == nil {
		return "Error: unknown failure"
	}
	var ce *client.Error
	if errors.As(err, &ce) {
		return "Error: " + ce.Error()
	}
	return "Error: " + err.Error()
}

// renderRow stringifies one row, padding short rows with the null token so
// the rendered column count stays constant.
func renderRow(row []any, width int) []string {
	cells := make([]string, width)
	for i := range cells {
		if i >= len(row) {
			cells[i] = nullToken
			continue
		}
		cells[i] = renderScalar(row[i])
	}
	return cells
}

// renderScalar converts one scalar to text. No locale formatting and no
// truncation: values render exactly as received.
func renderScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return nullToken
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

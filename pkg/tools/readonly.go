package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ReadOnlyInterceptor rejects statements that modify data or schema before
// they reach the warehouse. Detection is a leading-keyword match, so SELECTs
// that merely mention a blocked word in a literal or column name pass.
type ReadOnlyInterceptor struct{}

// NewReadOnlyInterceptor creates a new read-only query interceptor.
func NewReadOnlyInterceptor() *ReadOnlyInterceptor {
	return &ReadOnlyInterceptor{}
}

// writeKeywords are SQL keywords that indicate write operations.
var writeKeywords = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"CREATE",
	"ALTER",
	"TRUNCATE",
	"GRANT",
	"REVOKE",
	"MERGE",
}

// writePattern matches statements whose leading keyword (after optional
// whitespace and line or block comments) is a write keyword. Matching is
// case-insensitive.
var writePattern = regexp.MustCompile(
	`(?i)^\s*(?:--[^\n]*\n\s*|/\*[\s\S]*?\*/\s*)*\s*(` +
		strings.Join(writeKeywords, "|") +
		`)(?:\s|$|;|\()`,
)

// Intercept rejects write statements, leaving read statements unchanged.
func (r *ReadOnlyInterceptor) Intercept(_ context.Context, sql string, _ ToolName) (string, error) {
	if kw := matchWriteKeyword(sql); kw != "" {
		return "", fmt.Errorf("blocked: %s statements are not allowed in read-only mode", kw)
	}
	return sql, nil
}

// matchWriteKeyword returns the offending keyword, or "" for read statements.
func matchWriteKeyword(sql string) string {
	m := writePattern.FindStringSubmatch(strings.TrimSpace(sql))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// Verify interface compliance.
var _ QueryInterceptor = (*ReadOnlyInterceptor)(nil)

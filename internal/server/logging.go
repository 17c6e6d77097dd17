package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const methodToolsCall = "tools/call"

// toolLoggingMiddleware creates MCP protocol-level middleware that logs every
// tools/call with its tool name, duration, and outcome. Other methods pass
// through untouched.
func toolLoggingMiddleware(log *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			toolName, err := extractToolName(req)
			if err != nil {
				toolName = "unknown"
			}

			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			attrs := []any{"tool", toolName, "duration_ms", elapsed.Milliseconds()}
			switch {
			case err != nil:
				log.Error("tool call failed", append(attrs, "error", err)...)
			case isErrorResult(result):
				log.Warn("tool call returned error result", attrs...)
			default:
				log.Debug("tool call completed", attrs...)
			}

			return result, err
		}
	}
}

// extractToolName pulls the tool name from a tools/call request.
func extractToolName(req mcp.Request) (string, error) {
	params := req.GetParams()
	if params == nil {
		return "", fmt.Errorf("missing params")
	}
	callParams, ok := params.(*mcp.CallToolParamsRaw)
	if !ok || callParams == nil {
		return "", fmt.Errorf("unexpected params type: %T", params)
	}
	if callParams.Name == "" {
		return "", fmt.Errorf("missing tool name")
	}
	return callParams.Name, nil
}

// isErrorResult reports whether a tools/call result carries IsError.
func isErrorResult(result mcp.Result) bool {
	ctr, ok := result.(*mcp.CallToolResult)
	return ok && ctr != nil && ctr.IsError
}

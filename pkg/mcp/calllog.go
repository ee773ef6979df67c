package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/logging"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/middleware"
)

// securityViolationCode is the tool error code for rejected queries.
const securityViolationCode = "security_violation"

// CallLogger logs every MCP tool call with its sanitized arguments, duration
// and outcome. It works for both the stdio and HTTP transports.
type CallLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewCallLogger creates a CallLogger.
func NewCallLogger(logger *zap.Logger) *CallLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallLogger{logger: logger.Named("mcp-calls")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (c *CallLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(c.beforeCallTool)
	hooks.AddAfterCallTool(c.afterCallTool)
	hooks.AddOnError(c.onError)
	return hooks
}

func (c *CallLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	c.startTimes.Store(id, time.Now())
}

func (c *CallLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	fields := c.fields(id, req)

	code := errorCode(result)
	if code == "" {
		c.logger.Info("Tool call", fields...)
		return
	}

	fields = append(fields, zap.String("error_code", code))
	if code == securityViolationCode {
		c.logger.Warn("Unsafe query rejected", fields...)
		return
	}
	c.logger.Info("Tool call returned error", fields...)
}

func (c *CallLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	fields := append(c.fields(id, req), zap.String("error", logging.SanitizeError(err)))
	c.logger.Warn("Tool call failed", fields...)
}

func (c *CallLogger) fields(id any, req *mcplib.CallToolRequest) []zap.Field {
	start, ok := c.startTimes.LoadAndDelete(id)
	duration := time.Duration(0)
	if ok {
		duration = time.Since(start.(time.Time))
	}

	var args map[string]any
	if m, ok := req.Params.Arguments.(map[string]any); ok {
		args = middleware.SanitizeArguments(m)
	}

	return []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Any("arguments", args),
		zap.Duration("duration", duration),
	}
}

// errorCode returns the code of a structured error result, or "" for a
// successful result.
func errorCode(result *mcplib.CallToolResult) string {
	if result == nil || !result.IsError {
		return ""
	}
	for _, content := range result.Content {
		tc, ok := content.(mcplib.TextContent)
		if !ok {
			continue
		}
		var resp tools.ErrorResponse
		if err := json.Unmarshal([]byte(tc.Text), &resp); err == nil && resp.Code != "" {
			return resp.Code
		}
	}
	return "unknown"
}

package mcp

import (
	"context"
	"errors"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/mcp/tools"
)

func newLoggedServer(t *testing.T) (*Server, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	s := NewServer("test-server", "1.0.0", NewCallLogger(zap.New(core)), zap.NewNop())

	s.RegisterTool(mcplib.NewTool("ok_tool", mcplib.WithString("condition")),
		func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
			return mcplib.NewToolResultText("done"), nil
		})
	s.RegisterTool(mcplib.NewTool("unsafe_tool"),
		func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
			return tools.NewErrorResult("security_violation", "stacked statements"), nil
		})
	s.RegisterTool(mcplib.NewTool("missing_tool"),
		func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
			return tools.NewErrorResult("not_found", "bug BUG-9 not found"), nil
		})
	s.RegisterTool(mcplib.NewTool("broken_tool"),
		func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
			return nil, errors.New("disk full")
		})

	return s, logs
}

func call(s *Server, body string) {
	s.MCP().HandleMessage(context.Background(), []byte(body))
}

func TestCallLogger_SuccessfulCall(t *testing.T) {
	s, logs := newLoggedServer(t)

	call(s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"ok_tool","arguments":{"condition":"cust_no = '12345'"}}}`)

	entries := logs.FilterMessage("Tool call").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "mcp-calls", entries[0].LoggerName)

	fields := entries[0].ContextMap()
	assert.Equal(t, "ok_tool", fields["tool"])
	assert.Equal(t, map[string]any{"condition": "cust_no = '***'"}, fields["arguments"])
	assert.Contains(t, fields, "duration")
}

func TestCallLogger_SecurityViolation(t *testing.T) {
	s, logs := newLoggedServer(t)

	call(s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"unsafe_tool"}}`)

	entries := logs.FilterMessage("Unsafe query rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "security_violation", entries[0].ContextMap()["error_code"])
}

func TestCallLogger_ErrorResult(t *testing.T) {
	s, logs := newLoggedServer(t)

	call(s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"missing_tool"}}`)

	entries := logs.FilterMessage("Tool call returned error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "not_found", entries[0].ContextMap()["error_code"])
}

func TestCallLogger_HandlerFailure(t *testing.T) {
	s, logs := newLoggedServer(t)

	call(s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"broken_tool"}}`)

	entries := logs.FilterMessage("Tool call failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "broken_tool", entries[0].ContextMap()["tool"])
	assert.Contains(t, entries[0].ContextMap()["error"], "disk full")
}

func TestCallLogger_IgnoresOtherMethods(t *testing.T) {
	s, logs := newLoggedServer(t)

	call(s, `{"jsonrpc":"2.0","id":5,"method":"tools/list"}`)
	call(s, `{"jsonrpc":"2.0","id":6,"method":"resources/read","params":{"uri":"file:///nope"}}`)

	assert.Equal(t, 0, logs.Len())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name   string
		result *mcplib.CallToolResult
		want   string
	}{
		{"nil result", nil, ""},
		{"success", mcplib.NewToolResultText("ok"), ""},
		{"structured error", tools.NewErrorResult("unknown_table", "no templates"), "unknown_table"},
		{
			"unstructured error",
			&mcplib.CallToolResult{IsError: true, Content: []mcplib.Content{mcplib.TextContent{Type: "text", Text: "boom"}}},
			"unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.result))
		})
	}
}

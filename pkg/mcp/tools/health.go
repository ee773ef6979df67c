package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
)

type healthResult struct {
	Status              string `json:"status"`
	Version             string `json:"version"`
	LogServerConfigured bool   `json:"log_server_configured"`
	DatabaseConfigured  bool   `json:"database_configured"`
	DatabaseType        string `json:"database_type,omitempty"`
	ProjectConfig       string `json:"project_config"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool reports the server version and which integrations are configured.
func RegisterHealthTool(s *server.MCPServer, version string, cfg *config.Config) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and which integrations are configured"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: "ok", Version: version}
		if cfg != nil {
			result.LogServerConfigured = cfg.RequireLogServer() == nil
			result.DatabaseConfigured = cfg.Database.IsConfigured()
			if result.DatabaseConfigured {
				result.DatabaseType = cfg.Database.Type
			}
			result.ProjectConfig = cfg.ProjectConfigPath()
		}
		return jsonResult(result)
	})
}

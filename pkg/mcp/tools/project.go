package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
)

// ProjectToolDeps contains dependencies for the project analysis tool.
type ProjectToolDeps struct {
	Analyzer services.ProjectAnalyzerService
	Logger   *zap.Logger
}

// RegisterProjectTools registers the analyze_project tool.
func RegisterProjectTools(s *server.MCPServer, deps *ProjectToolDeps) {
	tool := mcp.NewTool(
		"analyze_project",
		mcp.WithDescription(
			"Scan a Java project for Repository and Service classes and write the project configuration "+
				"(repository-to-table mapping, services, business scenarios and per-table query templates). "+
				"Run this once per project before bugfix_analyze so log SQL can be correlated with tables.",
		),
		mcp.WithString(
			"project_root",
			mcp.Description("Project directory to scan (default: the server's working directory)"),
		),
		mcp.WithString(
			"output_path",
			mcp.Description("Where to write the configuration (default: <project_root>/bugfix.project.auto.json)"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := deps.Analyzer.Analyze(ctx,
			getOptionalString(req, "project_root"),
			getOptionalString(req, "output_path"))
		if err != nil {
			return toolError(deps.Logger, "analyze_project", err)
		}
		return jsonResult(summary)
	})
}

// toolError turns err into a structured result when the caller can act on it
// and into a protocol error otherwise.
func toolError(logger *zap.Logger, tool string, err error) (*mcp.CallToolResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if result := ErrorResultFor(err); result != nil {
		logger.Debug("Tool input error", zap.String("tool", tool), zap.Error(err))
		return result, nil
	}
	logger.Error("Tool failed", zap.String("tool", tool), zap.Error(err))
	return nil, err
}

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
)

// QueryToolDeps contains dependencies for the query template tools.
type QueryToolDeps struct {
	QueryService services.QueryService
	Logger       *zap.Logger
}

// RegisterQueryTools registers render_query and run_query.
func RegisterQueryTools(s *server.MCPServer, deps *QueryToolDeps) {
	registerRenderQueryTool(s, deps)
	registerRunQueryTool(s, deps)
}

// templateOptions are the parameters shared by render_query and run_query.
func templateOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Table name from the project configuration (singular or plural form is accepted)"),
		),
		mcp.WithString(
			"kind",
			mcp.Description("Template kind: basic (default), count or timerange"),
			mcp.Enum("basic", "count", "timerange"),
		),
		mcp.WithString(
			"condition",
			mcp.Description("SQL condition for basic and count queries (e.g. cust_no = '12345')"),
		),
		mcp.WithString(
			"start_time",
			mcp.Description("Start of the range for timerange queries (e.g. 2024-05-01)"),
		),
		mcp.WithString(
			"end_time",
			mcp.Description("End of the range for timerange queries (e.g. 2024-05-02)"),
		),
		mcp.WithString(
			"project_config",
			mcp.Description("Project configuration file (default: the configured analyzer output)"),
		),
	}
}

func queryRequestFrom(req mcp.CallToolRequest) (services.QueryRequest, *mcp.CallToolResult) {
	table, errResult := requireString(req, "table")
	if errResult != nil {
		return services.QueryRequest{}, errResult
	}
	qr := services.QueryRequest{
		ProjectConfigPath: getOptionalString(req, "project_config"),
		Table:             table,
		Kind:              getOptionalString(req, "kind"),
		Condition:         getOptionalString(req, "condition"),
		StartTime:         getOptionalString(req, "start_time"),
		EndTime:           getOptionalString(req, "end_time"),
	}
	if limit, ok := getOptionalFloat(req, "limit"); ok {
		qr.Limit = int(limit)
	}
	return qr, nil
}

func registerRenderQueryTool(s *server.MCPServer, deps *QueryToolDeps) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Fill a generated query template for a table. Returns the SQL without running it. " +
				"Values are checked so the result is a single read-only statement.",
		),
	}, templateOptions()...)
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	tool := mcp.NewTool("render_query", opts...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		qr, errResult := queryRequestFrom(req)
		if errResult != nil {
			return errResult, nil
		}

		rendered, err := deps.QueryService.Render(ctx, qr)
		if err != nil {
			return toolError(deps.Logger, "render_query", err)
		}
		return jsonResult(rendered)
	})
}

func registerRunQueryTool(s *server.MCPServer, deps *QueryToolDeps) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Fill a generated query template and run it against the configured database. " +
				"Rows are capped by the configured maximum.",
		),
	}, templateOptions()...)
	opts = append(opts,
		mcp.WithNumber(
			"limit",
			mcp.Description("Max rows to return (default and cap: database.maxQueryLimit)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
	tool := mcp.NewTool("run_query", opts...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		qr, errResult := queryRequestFrom(req)
		if errResult != nil {
			return errResult, nil
		}

		outcome, err := deps.QueryService.Execute(ctx, qr)
		if err != nil {
			return toolError(deps.Logger, "run_query", err)
		}
		return jsonResult(outcome)
	})
}

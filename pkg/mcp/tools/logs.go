package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/logextract"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/remote"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/sql"
)

const (
	// searchPreviewLines and searchPreviewWidth bound the log excerpt returned
	// by search_logs. The full output is saved to the log file.
	searchPreviewLines = 20
	searchPreviewWidth = 300
)

// LogToolDeps contains dependencies for the log tools.
type LogToolDeps struct {
	LogSearch services.LogSearchService
	Extractor services.LogExtractorService
	Logger    *zap.Logger
}

// RegisterLogTools registers extract_log_info and search_logs.
func RegisterLogTools(s *server.MCPServer, deps *LogToolDeps) {
	registerExtractLogInfoTool(s, deps)
	registerSearchLogsTool(s, deps)
}

type extractLogInfoResult struct {
	models.ExtractionResult
	ReferencedTables []string `json:"referencedTables"`
}

func registerExtractLogInfoTool(s *server.MCPServer, deps *LogToolDeps) {
	tool := mcp.NewTool(
		"extract_log_info",
		mcp.WithDescription(
			"Extract business information from log text: SQL statements, error lines, external calls, "+
				"user identifiers (custNo, hboneNo), trace IDs matching the project's trace patterns and the "+
				"tables referenced by the SQL.",
		),
		mcp.WithString(
			"log_text",
			mcp.Required(),
			mcp.Description("Raw log text, one entry per line"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, errResult := requireString(req, "log_text")
		if errResult != nil {
			return errResult, nil
		}

		var extraction models.ExtractionResult
		if deps.Extractor != nil {
			extraction = deps.Extractor.Extract(ctx, text)
		} else {
			extraction = logextract.Extract(text)
		}
		return jsonResult(extractLogInfoResult{
			ExtractionResult: extraction,
			ReferencedTables: sql.UniqueTables(extraction.DataStatements),
		})
	})
}

type searchLogsResult struct {
	TraceID    string                  `json:"traceId"`
	Command    string                  `json:"command"`
	LinesCount int                     `json:"linesCount"`
	Timestamp  string                  `json:"timestamp"`
	LogFile    string                  `json:"logFile,omitempty"`
	Preview    []string                `json:"preview"`
	Extraction models.ExtractionResult `json:"extraction"`
}

func registerSearchLogsTool(s *server.MCPServer, deps *LogToolDeps) {
	tool := mcp.NewTool(
		"search_logs",
		mcp.WithDescription(
			"Search the log server over SSH for a trace ID. The full output is saved to a local file "+
				"(under the bug's logs directory when bug_id is given); the result contains a preview and "+
				"the extracted business information.",
		),
		mcp.WithString(
			"trace_id",
			mcp.Required(),
			mcp.Description("Trace identifier to grep for"),
		),
		mcp.WithString(
			"bug_id",
			mcp.Description("Optional bug whose logs directory receives the output"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		traceID, errResult := requireString(req, "trace_id")
		if errResult != nil {
			return errResult, nil
		}

		outcome, err := deps.LogSearch.Search(ctx, traceID, getOptionalString(req, "bug_id"))
		if err != nil {
			return toolError(deps.Logger, "search_logs", err)
		}
		if outcome.Result.Failed() {
			return NewErrorResultWithDetails("search_failed", outcome.Result.Error, map[string]any{
				"trace_id":  outcome.Result.TraceID,
				"command":   outcome.Result.Command,
				"timestamp": outcome.Result.Timestamp,
			}), nil
		}

		return jsonResult(searchLogsResult{
			TraceID:    outcome.Result.TraceID,
			Command:    outcome.Result.Command,
			LinesCount: outcome.Result.LinesCount,
			Timestamp:  outcome.Result.Timestamp,
			LogFile:    outcome.LogFile,
			Preview:    remote.Preview(outcome.Result.Output, searchPreviewLines, searchPreviewWidth),
			Extraction: outcome.Extraction,
		})
	})
}

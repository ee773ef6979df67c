package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
)

// BugfixToolDeps contains dependencies for the bugfix workflow tools.
type BugfixToolDeps struct {
	Bugfix services.BugfixService
	Logger *zap.Logger
}

// RegisterBugfixTools registers the bugfix workflow: bugfix_start,
// bugfix_analyze, bugfix_report and bugfix_list.
func RegisterBugfixTools(s *server.MCPServer, deps *BugfixToolDeps) {
	registerBugfixStartTool(s, deps)
	registerBugfixAnalyzeTool(s, deps)
	registerBugfixReportTool(s, deps)
	registerBugfixListTool(s, deps)
}

type bugfixStartResult struct {
	Session  *models.BugfixSession `json:"session"`
	NextStep string                `json:"next_step"`
}

func registerBugfixStartTool(s *server.MCPServer, deps *BugfixToolDeps) {
	tool := mcp.NewTool(
		"bugfix_start",
		mcp.WithDescription(
			"Start a bug investigation (step 1 of 3). Creates the bug directory with logs/, analysis/ "+
				"and reports/ and records the bug URL, trace ID and description. "+
				"Call bugfix_analyze next.",
		),
		mcp.WithString(
			"bug_id",
			mcp.Description("Bug identifier used as the directory name (default: generated)"),
		),
		mcp.WithString(
			"trace_id",
			mcp.Description("Trace ID of the failing request, if known"),
		),
		mcp.WithString(
			"bug_url",
			mcp.Description("Link to the bug in the issue tracker"),
		),
		mcp.WithString(
			"bug_description",
			mcp.Description("What the user observed"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Bugfix.Start(ctx, services.StartRequest{
			BugID:       getOptionalString(req, "bug_id"),
			TraceID:     getOptionalString(req, "trace_id"),
			BugURL:      getOptionalString(req, "bug_url"),
			Description: getOptionalString(req, "bug_description"),
		})
		if err != nil {
			return toolError(deps.Logger, "bugfix_start", err)
		}

		next := "Call bugfix_analyze with bug_id " + session.BugID
		if session.TraceID == "" {
			next += " and the trace_id of the failing request"
		}
		return jsonResult(bugfixStartResult{Session: session, NextStep: next})
	})
}

func registerBugfixAnalyzeTool(s *server.MCPServer, deps *BugfixToolDeps) {
	tool := mcp.NewTool(
		"bugfix_analyze",
		mcp.WithDescription(
			"Analyze a bug (step 2 of 3). Searches the log server for the trace ID, extracts SQL, errors, "+
				"external calls and user identifiers, and correlates the SQL tables with the project's business "+
				"scenarios. The analysis is saved under the bug's analysis directory. Call bugfix_report next.",
		),
		mcp.WithString(
			"bug_id",
			mcp.Required(),
			mcp.Description("Bug identifier returned by bugfix_start"),
		),
		mcp.WithString(
			"trace_id",
			mcp.Description("Trace ID to search for (default: the one given to bugfix_start)"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		bugID, errResult := requireString(req, "bug_id")
		if errResult != nil {
			return errResult, nil
		}

		analysis, err := deps.Bugfix.Analyze(ctx, bugID, getOptionalString(req, "trace_id"))
		if err != nil {
			return toolError(deps.Logger, "bugfix_analyze", err)
		}
		return jsonResult(analysis)
	})
}

// reportFields maps bugfix_report parameters to report sections.
var reportFields = []struct {
	param       string
	description string
	set         func(r *models.BugReport, v string)
}{
	{"user_info", "Affected user and identifiers (custNo, hboneNo)", func(r *models.BugReport, v string) { r.UserInfo = v }},
	{"business_scenario", "Business scenario and services involved", func(r *models.BugReport, v string) { r.BusinessScenario = v }},
	{"interface_params", "Request parameters of the failing interface", func(r *models.BugReport, v string) { r.InterfaceParams = v }},
	{"log_analysis", "Findings from the logs", func(r *models.BugReport, v string) { r.LogAnalysis = v }},
	{"table_data", "Relevant rows from the database", func(r *models.BugReport, v string) { r.TableData = v }},
	{"external_api_response", "Responses from external systems", func(r *models.BugReport, v string) { r.ExternalAPIResponse = v }},
	{"problem_location", "Class, method or query where the problem occurs", func(r *models.BugReport, v string) { r.ProblemLocation = v }},
	{"possible_cause", "Root cause analysis", func(r *models.BugReport, v string) { r.PossibleCause = v }},
	{"impact_scope", "Users, data or features affected", func(r *models.BugReport, v string) { r.ImpactScope = v }},
	{"fix_suggestions", "Proposed fix and data repair", func(r *models.BugReport, v string) { r.FixSuggestions = v }},
}

type bugfixReportResult struct {
	BugID      string `json:"bug_id"`
	ReportFile string `json:"report_file"`
}

func registerBugfixReportTool(s *server.MCPServer, deps *BugfixToolDeps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Write the bug analysis report (step 3 of 3) as markdown under the bug's reports directory. " +
				"Fill in the sections from the analysis; sections left empty are marked as not provided.",
		),
		mcp.WithString(
			"bug_id",
			mcp.Required(),
			mcp.Description("Bug identifier returned by bugfix_start"),
		),
	}
	for _, f := range reportFields {
		opts = append(opts, mcp.WithString(f.param, mcp.Description(f.description)))
	}
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	tool := mcp.NewTool("bugfix_report", opts...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		bugID, errResult := requireString(req, "bug_id")
		if errResult != nil {
			return errResult, nil
		}

		report := models.BugReport{BugID: bugID}
		for _, f := range reportFields {
			f.set(&report, getOptionalString(req, f.param))
		}

		path, err := deps.Bugfix.Report(ctx, report)
		if err != nil {
			return toolError(deps.Logger, "bugfix_report", err)
		}
		return jsonResult(bugfixReportResult{BugID: bugID, ReportFile: path})
	})
}

type bugfixListResult struct {
	Sessions []*models.BugfixSession `json:"sessions"`
}

func registerBugfixListTool(s *server.MCPServer, deps *BugfixToolDeps) {
	tool := mcp.NewTool(
		"bugfix_list",
		mcp.WithDescription("List bug investigations, oldest first"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessions, err := deps.Bugfix.List(ctx)
		if err != nil {
			return toolError(deps.Logger, "bugfix_list", err)
		}
		return jsonResult(bugfixListResult{Sessions: sessions})
	})
}

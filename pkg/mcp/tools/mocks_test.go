package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
)

type mockAnalyzer struct {
	root, outputPath string
	summary          *services.AnalysisSummary
	err              error
}

func (m *mockAnalyzer) Analyze(ctx context.Context, root, outputPath string) (*services.AnalysisSummary, error) {
	m.root, m.outputPath = root, outputPath
	return m.summary, m.err
}

type mockLogSearch struct {
	traceID, bugID string
	outcome        *services.LogSearchOutcome
	err            error
}

func (m *mockLogSearch) Search(ctx context.Context, traceID, bugID string) (*services.LogSearchOutcome, error) {
	m.traceID, m.bugID = traceID, bugID
	return m.outcome, m.err
}

type mockQueryService struct {
	req      services.QueryRequest
	rendered *services.RenderedQuery
	outcome  *services.QueryOutcome
	err      error
}

func (m *mockQueryService) Render(ctx context.Context, req services.QueryRequest) (*services.RenderedQuery, error) {
	m.req = req
	return m.rendered, m.err
}

func (m *mockQueryService) Execute(ctx context.Context, req services.QueryRequest) (*services.QueryOutcome, error) {
	m.req = req
	return m.outcome, m.err
}

type mockBugfix struct {
	startReq  services.StartRequest
	report    models.BugReport
	analyzeID string
	traceID   string

	session    *models.BugfixSession
	sessions   []*models.BugfixSession
	analysis   *models.BugAnalysis
	reportPath string
	err        error
}

func (m *mockBugfix) Start(ctx context.Context, req services.StartRequest) (*models.BugfixSession, error) {
	m.startReq = req
	return m.session, m.err
}

func (m *mockBugfix) Get(ctx context.Context, bugID string) (*models.BugfixSession, error) {
	return m.session, m.err
}

func (m *mockBugfix) List(ctx context.Context) ([]*models.BugfixSession, error) {
	return m.sessions, m.err
}

func (m *mockBugfix) Analyze(ctx context.Context, bugID, traceID string) (*models.BugAnalysis, error) {
	m.analyzeID, m.traceID = bugID, traceID
	return m.analysis, m.err
}

func (m *mockBugfix) Report(ctx context.Context, report models.BugReport) (string, error) {
	m.report = report
	return m.reportPath, m.err
}

var (
	_ services.ProjectAnalyzerService = (*mockAnalyzer)(nil)
	_ services.LogSearchService       = (*mockLogSearch)(nil)
	_ services.QueryService           = (*mockQueryService)(nil)
	_ services.BugfixService          = (*mockBugfix)(nil)
)

func newTestServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}

// toolResponse is a tools/call response as seen by an MCP client.
type toolResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Text returns the text of the first content item.
func (r toolResponse) Text() string {
	if len(r.Result.Content) == 0 {
		return ""
	}
	return r.Result.Content[0].Text
}

// callTool sends a tools/call request through the server's message handler.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	}
	body, err := json.Marshal(request)
	require.NoError(t, err)

	result := s.HandleMessage(context.Background(), body)
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(resultBytes, &resp))
	return resp
}

// listedTool is a tools/list entry.
type listedTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	} `json:"inputSchema"`
	Annotations struct {
		ReadOnlyHint *bool `json:"readOnlyHint"`
	} `json:"annotations"`
}

// listTools returns the tools/list response keyed by tool name.
func listTools(t *testing.T, s *server.MCPServer) map[string]listedTool {
	t.Helper()

	result := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []listedTool `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	tools := make(map[string]listedTool, len(response.Result.Tools))
	for _, tool := range response.Result.Tools {
		tools[tool.Name] = tool
	}
	return tools
}

// decodeError parses a structured error result.
func decodeError(t *testing.T, resp toolResponse) ErrorResponse {
	t.Helper()

	require.True(t, resp.Result.IsError, "expected an error result, got %s", resp.Text())
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Text()), &errResp))
	return errResp
}

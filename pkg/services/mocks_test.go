package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/inference"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/remote"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/repositories"
)

// mockSession implements remote.Session.
type mockSession struct {
	output   string
	err      error
	commands []string
	closed   bool
}

func (m *mockSession) Run(_ context.Context, command string) (string, error) {
	m.commands = append(m.commands, command)
	return m.output, m.err
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

// mockDialer implements remote.Dialer.
type mockDialer struct {
	session *mockSession
	err     error
}

func (m *mockDialer) Dial(_ context.Context, _ config.LogServerConfig) (remote.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

// mockLogSearch implements LogSearchService.
type mockLogSearch struct {
	outcome  *LogSearchOutcome
	err      error
	traceIDs []string
	bugIDs   []string
}

func (m *mockLogSearch) Search(_ context.Context, traceID, bugID string) (*LogSearchOutcome, error) {
	m.traceIDs = append(m.traceIDs, traceID)
	m.bugIDs = append(m.bugIDs, bugID)
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

// mockQueryExecutor implements datasource.QueryExecutor.
type mockQueryExecutor struct {
	result  *datasource.QueryExecutionResult
	err     error
	queries []string
	limits  []int
	closed  bool
}

func (m *mockQueryExecutor) TestConnection(context.Context) error {
	return nil
}

func (m *mockQueryExecutor) Query(_ context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	m.queries = append(m.queries, sqlQuery)
	m.limits = append(m.limits, limit)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockQueryExecutor) Close() error {
	m.closed = true
	return nil
}

// mockAdapterFactory implements datasource.DatasourceAdapterFactory.
type mockAdapterFactory struct {
	executor *mockQueryExecutor
	err      error
	configs  []*config.DatabaseConfig
}

func (m *mockAdapterFactory) NewQueryExecutor(_ context.Context, cfg *config.DatabaseConfig) (datasource.QueryExecutor, error) {
	m.configs = append(m.configs, cfg)
	if m.err != nil {
		return nil, m.err
	}
	return m.executor, nil
}

func (m *mockAdapterFactory) ListTypes() []datasource.DatasourceAdapterInfo {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		LogServer: config.LogServerConfig{Host: "logs.internal", Username: "ops", Password: "secret"},
		SearchOptions: config.SearchOptionsConfig{
			BaseDirectory: "/data/logs/",
			MaxLines:      "500",
			ContextLines:  "2",
		},
	}
}

// writeOrdersProjectConfig saves a project config with an orders table used
// by a query scenario and returns its path.
func writeOrdersProjectConfig(t *testing.T, dir string) string {
	t.Helper()

	cfg := &models.ProjectConfig{
		ProjectInfo:       models.ProjectInfo{Name: "shop", TotalRepositories: 1, TotalServices: 1},
		RepositoryMapping: map[string]string{"OrderRepository": "orders"},
		ServiceMapping: map[string]models.ServiceInfo{
			"OrderQueryService": {
				Description:  "Order query service",
				Tables:       []string{"orders"},
				BusinessType: "query",
				Repositories: []string{"OrderRepository"},
			},
		},
		BusinessScenarios: []models.BusinessScenario{{
			Scenario:        "query",
			RelatedServices: []string{"OrderQueryService"},
			CoreTables:      []string{"orders"},
			CommonIssues:    inference.IssuesFor("query"),
		}},
		DatabaseQueries: map[string]models.QueryTemplates{
			"orders": inference.QueryTemplatesFor("orders"),
		},
	}

	path := filepath.Join(dir, DefaultProjectConfigFile)
	require.NoError(t, repositories.NewProjectConfigRepository().Save(path, cfg))
	return path
}

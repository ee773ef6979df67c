package inference

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/source"
)

// TraceIDPatterns recognize trace identifiers in common log formats.
var TraceIDPatterns = []string{
	`traceId[=:\s]+([a-f0-9]{32})`,
	`trace-id[=:\s]+([a-f0-9-]{36})`,
	`requestId[=:\s]+([a-f0-9]{32})`,
	`tid[=:\s]+([a-f0-9]{32})`,
	`X-Trace-Id[=:\s]+([a-f0-9-]{36})`,
}

// UserIDFields are field names that carry a user identifier in logs and tables.
var UserIDFields = []string{
	"custNo", "hboneNo", "customerId", "userId", "userNo", "clientId", "accountId",
}

// QueryTemplatesFor returns the query templates generated for a table.
func QueryTemplatesFor(table string) models.QueryTemplates {
	return models.QueryTemplates{
		BasicQuery:     fmt.Sprintf("SELECT * FROM %s WHERE {condition} LIMIT 10", table),
		CountQuery:     fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE {condition}", table),
		TimeRangeQuery: fmt.Sprintf("SELECT * FROM %s WHERE created_time >= '{start_time}' AND created_time <= '{end_time}' LIMIT 20", table),
	}
}

// BuildConfig assembles the project artifact from completed inference results.
// Query templates are generated for every distinct table in repositories.
func BuildConfig(
	projectName string,
	repositories map[string]string,
	services map[string]models.ServiceInfo,
	scenarios []models.BusinessScenario,
	analyzedAt time.Time,
) *models.ProjectConfig {
	queries := make(map[string]models.QueryTemplates)
	for _, table := range repositories {
		if _, ok := queries[table]; !ok {
			queries[table] = QueryTemplatesFor(table)
		}
	}

	if scenarios == nil {
		scenarios = []models.BusinessScenario{}
	}

	return &models.ProjectConfig{
		ProjectInfo: models.ProjectInfo{
			Name:              projectName,
			AnalyzedAt:        analyzedAt.UTC().Format(time.RFC3339),
			TotalRepositories: len(repositories),
			TotalServices:     len(services),
		},
		RepositoryMapping: repositories,
		ServiceMapping:    services,
		BusinessScenarios: scenarios,
		ExtractionPatterns: models.ExtractionPatterns{
			TraceIDPatterns: append([]string(nil), TraceIDPatterns...),
			UserIDFields:    append([]string(nil), UserIDFields...),
		},
		DatabaseQueries: queries,
	}
}

// Analyze runs the whole pipeline over files found under root:
// repositories, then services, then scenarios, then assembly.
func Analyze(root string, files []source.File, analyzedAt time.Time, logger *zap.Logger) *models.ProjectConfig {
	if logger == nil {
		logger = zap.NewNop()
	}

	repositories := InferRepositories(files, logger)
	services := InferServices(files, repositories, logger)
	scenarios := AggregateScenarios(services)

	name := filepath.Base(filepath.Clean(root))
	if abs, err := filepath.Abs(root); err == nil {
		name = filepath.Base(abs)
	}

	logger.Info("Project analyzed",
		zap.String("project", name),
		zap.Int("repositories", len(repositories)),
		zap.Int("services", len(services)),
		zap.Int("scenarios", len(scenarios)))

	return BuildConfig(name, repositories, services, scenarios, analyzedAt)
}

// Tables returns the distinct tables of a configuration, sorted.
func Tables(cfg *models.ProjectConfig) []string {
	tables := make([]string, 0, len(cfg.DatabaseQueries))
	for table := range cfg.DatabaseQueries {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

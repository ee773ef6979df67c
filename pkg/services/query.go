package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/inference"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/logging"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/sql"
)

// QueryRequest selects and fills a per-table query template.
type QueryRequest struct {
	// ProjectConfigPath overrides the configured analyzer artifact.
	ProjectConfigPath string `json:"projectConfigPath,omitempty"`
	Table             string `json:"table"`
	// Kind is basic, count or timerange. Empty means basic.
	Kind      string `json:"kind,omitempty"`
	Condition string `json:"condition,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	// Limit caps the rows returned by Execute. Zero uses the configured maximum.
	Limit int `json:"limit,omitempty"`
}

// RenderedQuery is a filled template.
type RenderedQuery struct {
	Table string `json:"table"`
	Kind  string `json:"kind"`
	SQL   string `json:"sql"`
}

// QueryOutcome is a rendered query and the rows it returned.
type QueryOutcome struct {
	Query  RenderedQuery                    `json:"query"`
	Result *datasource.QueryExecutionResult `json:"result"`
}

// QueryService renders the generated query templates and runs them against
// the configured database.
type QueryService interface {
	Render(ctx context.Context, req QueryRequest) (*RenderedQuery, error)
	Execute(ctx context.Context, req QueryRequest) (*QueryOutcome, error)
}

type queryService struct {
	projects          repositories.ProjectConfigRepository
	adapterFactory    datasource.DatasourceAdapterFactory
	dbConfig          *config.DatabaseConfig
	projectConfigPath string
	logger            *zap.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(
	projects repositories.ProjectConfigRepository,
	adapterFactory datasource.DatasourceAdapterFactory,
	dbConfig *config.DatabaseConfig,
	projectConfigPath string,
	logger *zap.Logger,
) QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if projectConfigPath == "" {
		projectConfigPath = DefaultProjectConfigFile
	}
	return &queryService{
		projects:          projects,
		adapterFactory:    adapterFactory,
		dbConfig:          dbConfig,
		projectConfigPath: projectConfigPath,
		logger:            logger.Named("query"),
	}
}

var _ QueryService = (*queryService)(nil)

func (s *queryService) Render(ctx context.Context, req QueryRequest) (*RenderedQuery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := req.ProjectConfigPath
	if path == "" {
		path = s.projectConfigPath
	}
	cfg, err := s.projects.Load(path)
	if err != nil {
		return nil, err
	}

	table, ok := inference.ResolveTable(cfg, strings.TrimSpace(req.Table))
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", apperrors.ErrUnknownTable, req.Table, strings.Join(inference.Tables(cfg), ", "))
	}

	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = models.QueryKindBasic
	}
	tmpl, ok := cfg.DatabaseQueries[table].Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: query kind %q must be %s, %s or %s", apperrors.ErrInvalidInput,
			req.Kind, models.QueryKindBasic, models.QueryKindCount, models.QueryKindTimeRange)
	}

	rendered, err := sql.RenderTemplate(tmpl, map[string]string{
		sql.PlaceholderCondition: req.Condition,
		sql.PlaceholderStartTime: req.StartTime,
		sql.PlaceholderEndTime:   req.EndTime,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Query rendered",
		zap.String("table", table),
		zap.String("kind", kind),
		zap.String("sql", logging.SanitizeQuery(rendered)))
	return &RenderedQuery{Table: table, Kind: kind, SQL: rendered}, nil
}

func (s *queryService) Execute(ctx context.Context, req QueryRequest) (*QueryOutcome, error) {
	rendered, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	executor, err := s.adapterFactory.NewQueryExecutor(ctx, s.dbConfig)
	if err != nil {
		return nil, err
	}
	defer executor.Close()

	maxLimit := datasource.DefaultMaxQueryLimit
	if s.dbConfig != nil {
		maxLimit = s.dbConfig.MaxQueryLimitValue()
	}
	limit := datasource.EffectiveLimit(req.Limit, maxLimit)

	result, err := executor.Query(ctx, rendered.SQL, limit)
	if err != nil {
		s.logger.Error("Query failed",
			zap.String("table", rendered.Table),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	s.logger.Info("Query executed",
		zap.String("table", rendered.Table),
		zap.Int("rows", result.RowCount))
	return &QueryOutcome{Query: *rendered, Result: result}, nil
}

package main

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/remote"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/retry"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/source"
)

// serviceSet holds the services every command and the MCP server are built from.
type serviceSet struct {
	Analyzer  services.ProjectAnalyzerService
	LogSearch services.LogSearchService
	Bugfix    services.BugfixService
	Query     services.QueryService
	Extractor services.LogExtractorService
}

func newServiceSet(cfg *config.Config, logger *zap.Logger) *serviceSet {
	// Repositories
	projects := repositories.NewProjectConfigRepository()
	sessions := repositories.NewBugfixSessionRepository(cfg.Bugfix.BaseDir)

	// Adapters
	reader := source.NewFSReader(cfg.Analyzer.Extensions, cfg.Analyzer.IgnoredDirs, logger)
	dialer := remote.NewSSHDialer(logger, retry.DefaultConfig())
	adapterFactory := datasource.NewDatasourceAdapterFactory(logger)

	// Services
	extractor := services.NewLogExtractorService(projects, cfg.ProjectConfigPath(), cfg.Analyzer.UserIDFields, logger)
	logSearch := services.NewLogSearchService(cfg, dialer, sessions, extractor, logger)
	return &serviceSet{
		Analyzer:  services.NewProjectAnalyzerService(reader, projects, cfg.Analyzer.OutputFile, logger),
		LogSearch: logSearch,
		Bugfix:    services.NewBugfixService(sessions, projects, logSearch, cfg.ProjectConfigPath(), logger),
		Query:     services.NewQueryService(projects, adapterFactory, &cfg.Database, cfg.ProjectConfigPath(), logger),
		Extractor: extractor,
	}
}

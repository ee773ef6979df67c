package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/inference"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/source"
)

// DefaultProjectConfigFile is the artifact written under the project root.
const DefaultProjectConfigFile = "bugfix.project.auto.json"

// AnalysisSummary describes one analyzer run.
type AnalysisSummary struct {
	ProjectRoot  string   `json:"projectRoot"`
	OutputPath   string   `json:"outputPath"`
	FilesScanned int      `json:"filesScanned"`
	Repositories int      `json:"repositories"`
	Services     int      `json:"services"`
	Scenarios    int      `json:"scenarios"`
	Tables       []string `json:"tables"`

	Config *models.ProjectConfig `json:"-"`
}

// ProjectAnalyzerService scans a Java project and writes the project configuration artifact.
type ProjectAnalyzerService interface {
	// Analyze scans root (the working directory when empty) and writes the
	// artifact to outputPath (<root>/<output file> when empty).
	Analyze(ctx context.Context, root, outputPath string) (*AnalysisSummary, error)
}

type projectAnalyzerService struct {
	reader     source.Reader
	repo       repositories.ProjectConfigRepository
	outputFile string
	logger     *zap.Logger
	now        func() time.Time
}

// NewProjectAnalyzerService creates a ProjectAnalyzerService.
func NewProjectAnalyzerService(
	reader source.Reader,
	repo repositories.ProjectConfigRepository,
	outputFile string,
	logger *zap.Logger,
) ProjectAnalyzerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputFile == "" {
		outputFile = DefaultProjectConfigFile
	}
	return &projectAnalyzerService{
		reader:     reader,
		repo:       repo,
		outputFile: outputFile,
		logger:     logger.Named("project-analyzer"),
		now:        time.Now,
	}
}

var _ ProjectAnalyzerService = (*projectAnalyzerService)(nil)

func (s *projectAnalyzerService) Analyze(ctx context.Context, root, outputPath string) (*AnalysisSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: project root %s: %v", apperrors.ErrInvalidInput, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: project root %s is not a directory", apperrors.ErrInvalidInput, root)
	}

	if outputPath == "" {
		outputPath = filepath.Join(root, s.outputFile)
	}

	files, err := s.reader.ListFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read project sources: %w", err)
	}
	s.logger.Debug("Scanning project",
		zap.String("root", root),
		zap.Int("files", len(files)))

	cfg := inference.Analyze(root, files, s.now(), s.logger)
	if err := s.repo.Save(outputPath, cfg); err != nil {
		s.logger.Error("Failed to save project config",
			zap.String("path", outputPath),
			zap.Error(err))
		return nil, err
	}

	return &AnalysisSummary{
		ProjectRoot:  root,
		OutputPath:   outputPath,
		FilesScanned: len(files),
		Repositories: len(cfg.RepositoryMapping),
		Services:     len(cfg.ServiceMapping),
		Scenarios:    len(cfg.BusinessScenarios),
		Tables:       inference.Tables(cfg),
		Config:       cfg,
	}, nil
}

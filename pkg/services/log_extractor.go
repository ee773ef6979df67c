package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/logextract"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/repositories"
)

// LogExtractorService extracts business information from log text using the
// project's extraction patterns.
type LogExtractorService interface {
	// Extract classifies text. The identifier fields and trace id patterns of
	// the project configuration are used when it exists; otherwise only the
	// configured identifier fields are collected and no trace IDs reported.
	Extract(ctx context.Context, text string) models.ExtractionResult
}

type logExtractorService struct {
	projects          repositories.ProjectConfigRepository
	projectConfigPath string
	fields            []string
	logger            *zap.Logger
}

// NewLogExtractorService creates a LogExtractorService. fields are the
// identifier fields used when the project configuration names none.
func NewLogExtractorService(
	projects repositories.ProjectConfigRepository,
	projectConfigPath string,
	fields []string,
	logger *zap.Logger,
) LogExtractorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if projectConfigPath == "" {
		projectConfigPath = DefaultProjectConfigFile
	}
	return &logExtractorService{
		projects:          projects,
		projectConfigPath: projectConfigPath,
		fields:            fields,
		logger:            logger.Named("log-extractor"),
	}
}

var _ LogExtractorService = (*logExtractorService)(nil)

func (s *logExtractorService) Extract(ctx context.Context, text string) models.ExtractionResult {
	return s.extractor(ctx).Extract(text)
}

// extractor loads the project configuration on every call so an artifact
// written by a later analyze is picked up.
func (s *logExtractorService) extractor(ctx context.Context) *logextract.Extractor {
	fallback := logextract.New(s.fields...)
	if ctx.Err() != nil || s.projects == nil {
		return fallback
	}

	project, err := s.projects.Load(s.projectConfigPath)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Ignoring unreadable project config",
				zap.String("path", s.projectConfigPath),
				zap.Error(err))
		}
		return fallback
	}

	e, err := logextract.NewWithPatterns(project.ExtractionPatterns, s.fields...)
	if err != nil {
		s.logger.Warn("Ignoring invalid extraction patterns",
			zap.String("path", s.projectConfigPath),
			zap.Error(err))
		return fallback
	}
	return e
}

package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/remote"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/repositories"
)

// logFileTimeLayout is the timestamp format of saved log file names.
const logFileTimeLayout = "20060102_150405"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LogSearchOutcome is a remote search together with the business information
// extracted from its output.
type LogSearchOutcome struct {
	Result     models.SearchResult     `json:"result"`
	Extraction models.ExtractionResult `json:"extraction"`
	// LogFile is where the full output was saved. Empty when nothing matched.
	LogFile string `json:"logFile,omitempty"`
}

// LogSearchService searches the log server for a trace identifier.
type LogSearchService interface {
	// Search greps the log server for traceID and saves any output. With a
	// bugID the log is saved in that bug's logs directory, otherwise in the
	// working directory. Search failures are reported in Result.Error; only
	// configuration problems and local write failures are returned as errors.
	Search(ctx context.Context, traceID, bugID string) (*LogSearchOutcome, error)
}

type logSearchService struct {
	cfg       *config.Config
	dialer    remote.Dialer
	extractor LogExtractorService
	sessions  repositories.BugfixSessionRepository
	logDir    string
	logger    *zap.Logger
	now       func() time.Time
}

// NewLogSearchService creates a LogSearchService. Search output is classified
// by extractor; with a nil extractor only the configured identifier fields
// are collected.
func NewLogSearchService(
	cfg *config.Config,
	dialer remote.Dialer,
	sessions repositories.BugfixSessionRepository,
	extractor LogExtractorService,
	logger *zap.Logger,
) LogSearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewLogExtractorService(nil, "", cfg.Analyzer.UserIDFields, logger)
	}
	return &logSearchService{
		cfg:       cfg,
		dialer:    dialer,
		extractor: extractor,
		sessions:  sessions,
		logDir:    ".",
		logger:    logger.Named("log-search"),
		now:       time.Now,
	}
}

var _ LogSearchService = (*logSearchService)(nil)

func (s *logSearchService) Search(ctx context.Context, traceID, bugID string) (*LogSearchOutcome, error) {
	if err := s.cfg.RequireLogServer(); err != nil {
		return nil, err
	}
	if bugID != "" {
		if err := repositories.ValidateBugID(bugID); err != nil {
			return nil, err
		}
	}

	result := remote.Search(ctx, s.dialer, s.cfg, traceID, s.logger)
	outcome := &LogSearchOutcome{
		Result:     result,
		Extraction: models.NewExtractionResult(),
	}
	if result.Failed() || strings.TrimSpace(result.Output) == "" {
		return outcome, nil
	}

	outcome.Extraction = s.extractor.Extract(ctx, result.Output)

	filename := LogFileName(result.TraceID, s.now())
	path, err := s.saveLog(bugID, filename, result.Output)
	if err != nil {
		s.logger.Error("Failed to save log file",
			zap.String("trace_id", result.TraceID),
			zap.Error(err))
		return nil, err
	}
	outcome.LogFile = path

	s.logger.Info("Log search saved",
		zap.String("trace_id", result.TraceID),
		zap.Int("lines", result.LinesCount),
		zap.String("path", path))
	return outcome, nil
}

func (s *logSearchService) saveLog(bugID, filename, content string) (string, error) {
	if bugID != "" {
		return s.sessions.SaveLog(bugID, filename, content)
	}

	if err := os.MkdirAll(s.logDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(s.logDir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write log file: %w", err)
	}
	return path, nil
}

// LogFileName returns the name a search output is saved under,
// e.g. logs_abc123_20240501_123000.txt.
func LogFileName(traceID string, at time.Time) string {
	safe := strings.Trim(unsafeFileChars.ReplaceAllString(traceID, "_"), "_")
	if safe == "" {
		safe = "trace"
	}
	return fmt.Sprintf("logs_%s_%s.txt", safe, at.Format(logFileTimeLayout))
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/inference"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/sql"
)

// StartRequest opens a bug investigation. BugID is generated when empty.
type StartRequest struct {
	BugID       string `json:"bugId,omitempty"`
	TraceID     string `json:"traceId,omitempty"`
	BugURL      string `json:"bugUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

// BugfixService manages bug investigations: the session directory, log
// analysis and the final report.
type BugfixService interface {
	Start(ctx context.Context, req StartRequest) (*models.BugfixSession, error)
	Get(ctx context.Context, bugID string) (*models.BugfixSession, error)
	List(ctx context.Context) ([]*models.BugfixSession, error)

	// Analyze searches the logs for traceID (the session's trace ID when
	// empty), correlates the extracted SQL with the project configuration and
	// saves the result under the bug's analysis directory. The search output
	// itself is saved under logs/ and omitted from the analysis.
	Analyze(ctx context.Context, bugID, traceID string) (*models.BugAnalysis, error)

	// Report renders the findings as markdown under the bug's reports
	// directory and returns the file path.
	Report(ctx context.Context, report models.BugReport) (string, error)
}

type bugfixService struct {
	sessions          repositories.BugfixSessionRepository
	projects          repositories.ProjectConfigRepository
	logSearch         LogSearchService
	projectConfigPath string
	logger            *zap.Logger
	now               func() time.Time
	newID             func() string
}

// NewBugfixService creates a BugfixService. projectConfigPath is the analyzer
// artifact used to correlate logs with tables.
func NewBugfixService(
	sessions repositories.BugfixSessionRepository,
	projects repositories.ProjectConfigRepository,
	logSearch LogSearchService,
	projectConfigPath string,
	logger *zap.Logger,
) BugfixService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if projectConfigPath == "" {
		projectConfigPath = DefaultProjectConfigFile
	}
	return &bugfixService{
		sessions:          sessions,
		projects:          projects,
		logSearch:         logSearch,
		projectConfigPath: projectConfigPath,
		logger:            logger.Named("bugfix"),
		now:               time.Now,
		newID:             func() string { return uuid.New().String() },
	}
}

var _ BugfixService = (*bugfixService)(nil)

func (s *bugfixService) Start(ctx context.Context, req StartRequest) (*models.BugfixSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessionID := s.newID()
	bugID := strings.TrimSpace(req.BugID)
	if bugID == "" {
		bugID = "bug-" + strings.ReplaceAll(sessionID, "-", "")[:8]
	}
	if err := repositories.ValidateBugID(bugID); err != nil {
		return nil, err
	}

	_, err := s.sessions.Get(bugID)
	if err == nil {
		return nil, fmt.Errorf("bug %s: %w: session already exists", bugID, apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.BugfixSession{
		BugID:       bugID,
		SessionID:   sessionID,
		TraceID:     strings.TrimSpace(req.TraceID),
		BugURL:      strings.TrimSpace(req.BugURL),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}

	s.logger.Info("Bugfix session started",
		zap.String("bug_id", bugID),
		zap.String("session_id", sessionID))
	return session, nil
}

func (s *bugfixService) Get(ctx context.Context, bugID string) (*models.BugfixSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.sessions.Get(bugID)
}

func (s *bugfixService) List(ctx context.Context) ([]*models.BugfixSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.sessions.List()
}

func (s *bugfixService) Analyze(ctx context.Context, bugID, traceID string) (*models.BugAnalysis, error) {
	session, err := s.sessions.Get(bugID)
	if err != nil {
		return nil, err
	}

	traceID = strings.TrimSpace(traceID)
	if traceID == "" {
		traceID = session.TraceID
	}
	if traceID == "" {
		return nil, fmt.Errorf("%w: bug %s has no trace ID", apperrors.ErrInvalidInput, bugID)
	}

	outcome, err := s.logSearch.Search(ctx, traceID, bugID)
	if err != nil {
		return nil, err
	}

	search := outcome.Result
	search.Output = ""
	analysis := &models.BugAnalysis{
		BugID:            bugID,
		TraceID:          traceID,
		Search:           search,
		Extraction:       outcome.Extraction,
		ReferencedTables: sql.UniqueTables(outcome.Extraction.DataStatements),
		Scenarios:        []models.BusinessScenario{},
		LogFile:          outcome.LogFile,
	}
	if analysis.ReferencedTables == nil {
		analysis.ReferencedTables = []string{}
	}

	if err := s.correlate(analysis); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	filename := fmt.Sprintf("analysis_%s.json", s.now().Format(logFileTimeLayout))
	path, err := s.sessions.SaveAnalysis(bugID, filename, string(append(data, '\n')))
	if err != nil {
		return nil, err
	}
	analysis.AnalysisFile = path

	if session.TraceID == "" {
		session.TraceID = traceID
	}
	if err := s.touch(session); err != nil {
		return nil, err
	}

	s.logger.Info("Bug analyzed",
		zap.String("bug_id", bugID),
		zap.String("trace_id", traceID),
		zap.Int("lines", search.LinesCount),
		zap.Int("tables", len(analysis.ReferencedTables)),
		zap.Int("scenarios", len(analysis.Scenarios)))
	return analysis, nil
}

// correlate fills the scenarios and suggested queries of analysis from the
// project configuration. A missing configuration only disables correlation.
func (s *bugfixService) correlate(analysis *models.BugAnalysis) error {
	if len(analysis.ReferencedTables) == 0 {
		return nil
	}

	cfg, err := s.projects.Load(s.projectConfigPath)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Project config not found, skipping table correlation",
			zap.String("path", s.projectConfigPath))
		return nil
	}
	if err != nil {
		return err
	}

	analysis.Scenarios = inference.MatchScenarios(cfg, analysis.ReferencedTables)
	for _, name := range analysis.ReferencedTables {
		table, ok := inference.ResolveTable(cfg, name)
		if !ok {
			continue
		}
		if analysis.SuggestedQueries == nil {
			analysis.SuggestedQueries = make(map[string]string)
		}
		analysis.SuggestedQueries[table] = cfg.DatabaseQueries[table].BasicQuery
	}
	return nil
}

func (s *bugfixService) Report(ctx context.Context, report models.BugReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	session, err := s.sessions.Get(report.BugID)
	if err != nil {
		return "", err
	}
	if report.BugURL == "" {
		report.BugURL = session.BugURL
	}
	if report.TraceID == "" {
		report.TraceID = session.TraceID
	}

	now := s.now()
	content, err := RenderReport(report, now)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("report_%s.md", now.Format(logFileTimeLayout))
	path, err := s.sessions.SaveReport(report.BugID, filename, content)
	if err != nil {
		return "", err
	}
	if err := s.touch(session); err != nil {
		return "", err
	}

	s.logger.Info("Bug report written",
		zap.String("bug_id", report.BugID),
		zap.String("path", path))
	return path, nil
}

func (s *bugfixService) touch(session *models.BugfixSession) error {
	session.UpdatedAt = s.now().UTC()
	return s.sessions.Save(session)
}

var reportTemplate = template.Must(template.New("report").Parse(`# Bug Analysis Report: {{.BugID}}

- Generated: {{.GeneratedAt}}
{{- if .BugURL}}
- Bug URL: {{.BugURL}}
{{- end}}
{{- if .TraceID}}
- Trace ID: {{.TraceID}}
{{- end}}
{{range .Sections}}
## {{.Title}}

{{if .Body}}{{.Body}}{{else}}_Not provided._{{end}}
{{end}}`))

type reportSection struct {
	Title string
	Body  string
}

// RenderReport formats report as markdown. Every section is present; empty
// ones are marked as not provided.
func RenderReport(report models.BugReport, generatedAt time.Time) (string, error) {
	data := struct {
		BugID       string
		BugURL      string
		TraceID     string
		GeneratedAt string
		Sections    []reportSection
	}{
		BugID:       report.BugID,
		BugURL:      report.BugURL,
		TraceID:     report.TraceID,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Sections: []reportSection{
			{"User Information", report.UserInfo},
			{"Business Scenario", report.BusinessScenario},
			{"Interface Parameters", report.InterfaceParams},
			{"Log Analysis", report.LogAnalysis},
			{"Table Data", report.TableData},
			{"External API Response", report.ExternalAPIResponse},
			{"Problem Location", report.ProblemLocation},
			{"Possible Cause", report.PossibleCause},
			{"Impact Scope", report.ImpactScope},
			{"Fix Suggestions", report.FixSuggestions},
		},
	}
	for i := range data.Sections {
		data.Sections[i].Body = strings.TrimSpace(data.Sections[i].Body)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

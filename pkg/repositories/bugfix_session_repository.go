package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

// Subdirectories of a bug directory.
const (
	LogsDir     = "logs"
	AnalysisDir = "analysis"
	ReportsDir  = "reports"

	sessionFile = "session.json"
)

// DefaultBugfixBaseDir is where bug directories are created when no base is configured.
const DefaultBugfixBaseDir = ".vibedev/bugfix"

var bugIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// BugfixSessionRepository stores bug investigations on disk, one directory per bug:
//
//	<base>/<bugId>/session.json
//	<base>/<bugId>/logs/
//	<base>/<bugId>/analysis/
//	<base>/<bugId>/reports/
type BugfixSessionRepository interface {
	Save(session *models.BugfixSession) error
	Get(bugID string) (*models.BugfixSession, error)
	List() ([]*models.BugfixSession, error)

	// SaveLog, SaveAnalysis and SaveReport write an artifact into the bug's
	// subdirectory and return its path.
	SaveLog(bugID, filename, content string) (string, error)
	SaveAnalysis(bugID, filename, content string) (string, error)
	SaveReport(bugID, filename, content string) (string, error)

	// Dir returns the directory of a bug.
	Dir(bugID string) string
}

type bugfixSessionRepository struct {
	baseDir string
}

// NewBugfixSessionRepository creates a repository rooted at baseDir.
func NewBugfixSessionRepository(baseDir string) BugfixSessionRepository {
	if baseDir == "" {
		baseDir = DefaultBugfixBaseDir
	}
	return &bugfixSessionRepository{baseDir: baseDir}
}

// ValidateBugID rejects IDs that are not a single safe path segment.
func ValidateBugID(bugID string) error {
	if !bugIDPattern.MatchString(bugID) {
		return fmt.Errorf("%w: bug ID %q must contain only letters, digits, '.', '_' or '-'", apperrors.ErrInvalidInput, bugID)
	}
	return nil
}

func (r *bugfixSessionRepository) Dir(bugID string) string {
	return filepath.Join(r.baseDir, bugID)
}

// ensureDir creates the bug directory and its subdirectories.
func (r *bugfixSessionRepository) ensureDir(bugID string) (string, error) {
	if err := ValidateBugID(bugID); err != nil {
		return "", err
	}
	dir := r.Dir(bugID)
	for _, sub := range []string{LogsDir, AnalysisDir, ReportsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return "", fmt.Errorf("failed to create bugfix directory: %w", err)
		}
	}
	return dir, nil
}

func (r *bugfixSessionRepository) Save(session *models.BugfixSession) error {
	dir, err := r.ensureDir(session.BugID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, sessionFile), append(data, '\n'))
}

func (r *bugfixSessionRepository) Get(bugID string) (*models.BugfixSession, error) {
	if err := ValidateBugID(bugID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(r.Dir(bugID), sessionFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("bug %s: %w", bugID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session models.BugfixSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session for bug %s: %w", bugID, err)
	}
	return &session, nil
}

// List returns every stored session, oldest first. Directories without a
// readable session.json are skipped.
func (r *bugfixSessionRepository) List() ([]*models.BugfixSession, error) {
	entries, err := os.ReadDir(r.baseDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []*models.BugfixSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bugfix sessions: %w", err)
	}

	sessions := make([]*models.BugfixSession, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || ValidateBugID(entry.Name()) != nil {
			continue
		}
		session, err := r.Get(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *bugfixSessionRepository) SaveLog(bugID, filename, content string) (string, error) {
	return r.saveArtifact(bugID, LogsDir, filename, content)
}

func (r *bugfixSessionRepository) SaveAnalysis(bugID, filename, content string) (string, error) {
	return r.saveArtifact(bugID, AnalysisDir, filename, content)
}

func (r *bugfixSessionRepository) SaveReport(bugID, filename, content string) (string, error) {
	return r.saveArtifact(bugID, ReportsDir, filename, content)
}

func (r *bugfixSessionRepository) saveArtifact(bugID, sub, filename, content string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: artifact name %q must be a plain file name", apperrors.ErrInvalidInput, filename)
	}

	dir, err := r.ensureDir(bugID)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, sub, filename)
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

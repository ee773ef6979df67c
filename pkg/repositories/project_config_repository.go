package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

// ProjectConfigRepository reads and writes the analyzer artifact.
type ProjectConfigRepository interface {
	Load(path string) (*models.ProjectConfig, error)
	Save(path string, cfg *models.ProjectConfig) error
}

type projectConfigRepository struct{}

// NewProjectConfigRepository creates a file-backed project config repository.
func NewProjectConfigRepository() ProjectConfigRepository {
	return &projectConfigRepository{}
}

// Load reads the artifact at path. Returns apperrors.ErrNotFound when the
// file does not exist.
func (r *projectConfigRepository) Load(path string) (*models.ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("project config %s: %w (run `ekaya-bugfix analyze` first)", path, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	var cfg models.ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config %s: %w", path, err)
	}
	if cfg.RepositoryMapping == nil {
		cfg.RepositoryMapping = map[string]string{}
	}
	if cfg.ServiceMapping == nil {
		cfg.ServiceMapping = map[string]models.ServiceInfo{}
	}
	if cfg.DatabaseQueries == nil {
		cfg.DatabaseQueries = map[string]models.QueryTemplates{}
	}
	return &cfg, nil
}

// Save writes cfg as JSON with two-space indentation. Non-ASCII text and
// SQL comparison operators are written as-is rather than escaped.
func (r *projectConfigRepository) Save(path string, cfg *models.ProjectConfig) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return writeFileAtomic(path, buf.Bytes())
}

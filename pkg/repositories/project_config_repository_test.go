package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

func sampleProjectConfig() *models.ProjectConfig {
	return &models.ProjectConfig{
		ProjectInfo:       models.ProjectInfo{Name: "shop", AnalyzedAt: "2024-05-01T12:00:00Z", TotalRepositories: 1, TotalServices: 1},
		RepositoryMapping: map[string]string{"OrderRepository": "orders"},
		ServiceMapping: map[string]models.ServiceInfo{
			"OrderQueryService": {
				Description:  "订单查询",
				Tables:       []string{"orders"},
				BusinessType: "order",
				Repositories: []string{"OrderRepository"},
			},
		},
		BusinessScenarios: []models.BusinessScenario{},
		DatabaseQueries: map[string]models.QueryTemplates{
			"orders": {TimeRangeQuery: "SELECT * FROM orders WHERE created_time >= '{start_time}'"},
		},
	}
}

func TestProjectConfigRepository_SaveAndLoad(t *testing.T) {
	repo := NewProjectConfigRepository()
	path := filepath.Join(t.TempDir(), "nested", "bugfix.project.auto.json")
	cfg := sampleProjectConfig()

	require.NoError(t, repo.Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "\n  \"projectInfo\": {\n    \"name\": \"shop\"")
	assert.Contains(t, text, "订单查询", "non-ASCII text is written as-is")
	assert.Contains(t, text, ">= '{start_time}'", "operators are not HTML-escaped")

	loaded, err := repo.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestProjectConfigRepository_LoadMissing(t *testing.T) {
	_, err := NewProjectConfigRepository().Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjectConfigRepository_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewProjectConfigRepository().Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjectConfigRepository_LoadFillsEmptyMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"projectInfo": {"name": "shop"}}`), 0o600))

	cfg, err := NewProjectConfigRepository().Load(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg.RepositoryMapping)
	assert.NotNil(t, cfg.ServiceMapping)
	assert.NotNil(t, cfg.DatabaseQueries)
}

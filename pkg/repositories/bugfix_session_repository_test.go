package repositories

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

func newSession(bugID string, createdAt time.Time) *models.BugfixSession {
	return &models.BugfixSession{
		BugID:       bugID,
		SessionID:   "session-" + bugID,
		TraceID:     "abc123",
		Description: "order page shows wrong amount",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestBugfixSessionRepository_SaveCreatesLayout(t *testing.T) {
	base := t.TempDir()
	repo := NewBugfixSessionRepository(base)

	require.NoError(t, repo.Save(newSession("BUG-1", time.Now().UTC())))

	for _, sub := range []string{LogsDir, AnalysisDir, ReportsDir} {
		info, err := os.Stat(filepath.Join(base, "BUG-1", sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	data, err := os.ReadFile(filepath.Join(base, "BUG-1", "session.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"bugId\": \"BUG-1\"")
}

func TestBugfixSessionRepository_GetRoundTrip(t *testing.T) {
	repo := NewBugfixSessionRepository(t.TempDir())
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	session := newSession("BUG-2", created)

	require.NoError(t, repo.Save(session))

	got, err := repo.Get("BUG-2")
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestBugfixSessionRepository_GetMissing(t *testing.T) {
	repo := NewBugfixSessionRepository(t.TempDir())

	_, err := repo.Get("BUG-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBugfixSessionRepository_RejectsUnsafeIDs(t *testing.T) {
	repo := NewBugfixSessionRepository(t.TempDir())

	for _, id := range []string{"", "..", "../etc", "a/b", ".hidden", "bug 1"} {
		t.Run(id, func(t *testing.T) {
			err := repo.Save(newSession(id, time.Now()))
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

			_, err = repo.Get(id)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestBugfixSessionRepository_List(t *testing.T) {
	base := t.TempDir()
	repo := NewBugfixSessionRepository(base)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(newSession("BUG-B", now.Add(time.Hour))))
	require.NoError(t, repo.Save(newSession("BUG-A", now)))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "not-a-session"), 0o755))

	sessions, err := repo.List()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "BUG-A", sessions[0].BugID)
	assert.Equal(t, "BUG-B", sessions[1].BugID)
}

func TestBugfixSessionRepository_ListMissingBase(t *testing.T) {
	repo := NewBugfixSessionRepository(filepath.Join(t.TempDir(), "absent"))

	sessions, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestBugfixSessionRepository_SaveArtifacts(t *testing.T) {
	base := t.TempDir()
	repo := NewBugfixSessionRepository(base)

	tests := []struct {
		name string
		save func(bugID, filename, content string) (string, error)
		sub  string
	}{
		{"log", repo.SaveLog, LogsDir},
		{"analysis", repo.SaveAnalysis, AnalysisDir},
		{"report", repo.SaveReport, ReportsDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tt.save("BUG-3", "artifact.txt", "content for "+tt.name)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(base, "BUG-3", tt.sub, "artifact.txt"), path)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "content for "+tt.name, string(data))
		})
	}

	_, err := repo.SaveLog("BUG-3", "../escape.txt", "x")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

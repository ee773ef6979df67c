package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
)

// mockQueryExecutor for testing factory
type mockQueryExecutor struct {
	cfg *config.DatabaseConfig
}

func (m *mockQueryExecutor) TestConnection(ctx context.Context) error {
	return nil
}

func (m *mockQueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error) {
	return &QueryExecutionResult{}, nil
}

func (m *mockQueryExecutor) Close() error {
	return nil
}

func registerMock(t *testing.T, dsType string) {
	t.Helper()
	Register(DatasourceAdapterRegistration{
		Info: DatasourceAdapterInfo{Type: dsType, DisplayName: "Mock " + dsType},
		QueryExecutorFactory: func(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (QueryExecutor, error) {
			return &mockQueryExecutor{cfg: cfg}, nil
		},
	})
	t.Cleanup(func() {
		registryMu.Lock()
		defer registryMu.Unlock()
		delete(registry, dsType)
	})
}

func TestFactory_NewQueryExecutor(t *testing.T) {
	registerMock(t, "mock_factory")
	factory := NewDatasourceAdapterFactory(zaptest.NewLogger(t))

	cfg := &config.DatabaseConfig{Type: "mock_factory", Host: "db.internal"}
	executor, err := factory.NewQueryExecutor(context.Background(), cfg)
	require.NoError(t, err)

	mock, ok := executor.(*mockQueryExecutor)
	require.True(t, ok)
	assert.Same(t, cfg, mock.cfg)
}

func TestFactory_NewQueryExecutor_Errors(t *testing.T) {
	factory := NewDatasourceAdapterFactory(nil)

	_, err := factory.NewQueryExecutor(context.Background(), &config.DatabaseConfig{Type: "postgres"})
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)

	_, err = factory.NewQueryExecutor(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)

	_, err = factory.NewQueryExecutor(context.Background(), &config.DatabaseConfig{Type: "unregistered", Host: "db.internal"})
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedDatasource)
	assert.Contains(t, err.Error(), "unregistered")
}

func TestRegistry(t *testing.T) {
	registerMock(t, "mock_b")
	registerMock(t, "mock_a")

	assert.True(t, IsRegistered("mock_a"))
	assert.False(t, IsRegistered("mock_missing"))
	assert.NotNil(t, GetQueryExecutorFactory("mock_b"))
	assert.Nil(t, GetQueryExecutorFactory("mock_missing"))

	var types []string
	for _, info := range NewDatasourceAdapterFactory(nil).ListTypes() {
		types = append(types, info.Type)
	}
	assert.Subset(t, types, []string{"mock_a", "mock_b"})
	assert.IsIncreasing(t, types)
}

func TestEffectiveLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		maxLimit int
		want     int
	}{
		{"zero uses max", 0, 100, 100},
		{"negative uses max", -5, 100, 100},
		{"above max is capped", 500, 100, 100},
		{"within max", 10, 100, 10},
		{"unset max uses default", 0, 0, DefaultMaxQueryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveLimit(tt.limit, tt.maxLimit))
		})
	}
}

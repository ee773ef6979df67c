package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
)

// DatasourceAdapterFactory creates adapters from the registry.
type DatasourceAdapterFactory interface {
	// NewQueryExecutor creates a query executor for the configured database type.
	NewQueryExecutor(ctx context.Context, cfg *config.DatabaseConfig) (QueryExecutor, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []DatasourceAdapterInfo
}

type registryFactory struct {
	logger *zap.Logger
}

// NewDatasourceAdapterFactory returns a factory that uses the global registry.
func NewDatasourceAdapterFactory(logger *zap.Logger) DatasourceAdapterFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registryFactory{logger: logger}
}

func (f *registryFactory) NewQueryExecutor(ctx context.Context, cfg *config.DatabaseConfig) (QueryExecutor, error) {
	if cfg == nil || !cfg.IsConfigured() {
		return nil, fmt.Errorf("%w: database.host is not set", apperrors.ErrNotConnected)
	}
	factory := GetQueryExecutorFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnsupportedDatasource, cfg.Type)
	}
	return factory(ctx, cfg, f.logger)
}

func (f *registryFactory) ListTypes() []DatasourceAdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements DatasourceAdapterFactory at compile time.
var _ DatasourceAdapterFactory = (*registryFactory)(nil)

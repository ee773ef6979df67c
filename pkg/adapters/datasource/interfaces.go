package datasource

import "context"

// QueryExecutor runs read-only queries against a datasource.
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	// TestConnection verifies the database is reachable with valid credentials.
	TestConnection(ctx context.Context) error

	// Query runs a SELECT statement and returns bounded results.
	// The query is always limited with the dialect's row cap:
	//   - PostgreSQL: SELECT * FROM (query) AS _limited LIMIT n
	//   - SQL Server: SELECT TOP (n) ...
	//
	// See EffectiveLimit for how limit is bounded.
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)

	// Close releases any resources held by the executor.
	Close() error
}

// DefaultMaxQueryLimit is the row cap used when the configuration sets none.
const DefaultMaxQueryLimit = 100

// EffectiveLimit bounds a requested row limit by maxLimit.
//   - limit <= 0: uses maxLimit
//   - limit > maxLimit: capped to maxLimit
//   - otherwise: uses limit
func EffectiveLimit(limit, maxLimit int) int {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxQueryLimit
	}
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}

// ColumnInfo describes a result column with database-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Database type name (e.g., "TEXT", "INT4", "VARCHAR")
}

// QueryExecutionResult holds the results from executing a query.
type QueryExecutionResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"rowCount"`
}

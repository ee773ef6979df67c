package postgres

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
)

// DefaultSSLMode is used when the configuration sets none.
const DefaultSSLMode = "disable"

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// IMPORTANT: All user-provided fields must be URL-escaped to handle special characters
// in passwords (e.g., @, /, #, ?) that would otherwise break URL parsing.
// When running in Docker, localhost is resolved to host.docker.internal
// to allow connections to databases running on the host machine.
func buildConnectionString(cfg *config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode
	}

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.ResolvedHost(),
		cfg.PortNumber(),
		url.QueryEscape(cfg.Database),
		url.QueryEscape(sslMode),
	)
}

// limitQuery wraps a query so it returns at most limit rows.
func limitQuery(sqlQuery string, limit int) string {
	return fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", sqlQuery, limit)
}

package mssql

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
)

// DefaultConnectionTimeout is the connection timeout in seconds.
const DefaultConnectionTimeout = 30

// buildConnectionString builds a sqlserver:// URL using SQL Server authentication.
// The shared sslMode setting maps onto the driver's encrypt options:
//   - "disable": no encryption
//   - "require": encrypt without verifying the server certificate
//   - anything else: encrypt and verify
func buildConnectionString(cfg *config.DatabaseConfig) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	switch cfg.SSLMode {
	case "disable":
		query.Add("encrypt", "disable")
	case "require", "":
		query.Add("encrypt", "true")
		query.Add("TrustServerCertificate", "true")
	default:
		query.Add("encrypt", "true")
	}

	query.Add("connection timeout", fmt.Sprintf("%d", DefaultConnectionTimeout))

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.ResolvedHost(),
		cfg.PortNumber(),
		query.Encode(),
	)
}

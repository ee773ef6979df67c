package mssql

import (
	"fmt"
	"regexp"
	"strings"

	sqlutil "github.com/ekaya-inc/ekaya-bugfix/pkg/sql"
)

var (
	// leading SELECT [DISTINCT]
	selectHeadRegex = regexp.MustCompile(`(?is)^\s*SELECT(\s+DISTINCT)?\s+`)
	selectTopRegex  = regexp.MustCompile(`(?is)^\s*SELECT(\s+DISTINCT)?\s+TOP\b`)
)

// limitQuery bounds a query with TOP. A trailing LIMIT clause is removed and
// honoured when it is smaller than limit. Plain SELECTs get TOP injected so
// ORDER BY and unnamed aggregate columns keep working; anything else is
// wrapped in a derived table.
func limitQuery(sqlQuery string, limit int) string {
	stripped, n, ok := sqlutil.StripLimit(sqlQuery)
	if ok {
		sqlQuery = strings.TrimSpace(stripped)
		if n > 0 && n < limit {
			limit = n
		}
	}

	if selectHeadRegex.MatchString(sqlQuery) && !selectTopRegex.MatchString(sqlQuery) {
		return selectHeadRegex.ReplaceAllString(sqlQuery, fmt.Sprintf("SELECT${1} TOP (%d) ", limit))
	}
	return fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", limit, sqlQuery)
}

// standardTypes maps SQL Server type names to the names reported by the
// postgres adapter, so query results look the same for both databases.
var standardTypes = map[string]string{
	"INT":              "INTEGER",
	"DECIMAL":          "NUMERIC",
	"SMALLMONEY":       "MONEY",
	"FLOAT":            "DOUBLE PRECISION",
	"NCHAR":            "CHAR",
	"NVARCHAR":         "VARCHAR",
	"NTEXT":            "TEXT",
	"BINARY":           "BYTEA",
	"VARBINARY":        "BYTEA",
	"IMAGE":            "BLOB",
	"DATETIME":         "TIMESTAMP",
	"DATETIME2":        "TIMESTAMP",
	"SMALLDATETIME":    "TIMESTAMP",
	"DATETIMEOFFSET":   "TIMESTAMP WITH TIME ZONE",
	"BIT":              "BOOLEAN",
	"UNIQUEIDENTIFIER": "UUID",
}

// mapSQLServerType returns the standard name of a SQL Server type. Types
// without a mapping are returned upper-cased.
func mapSQLServerType(sqlServerType string) string {
	sqlServerType = strings.ToUpper(sqlServerType)
	if std, ok := standardTypes[sqlServerType]; ok {
		return std
	}
	return sqlServerType
}

// isStringType reports whether values of the type arrive as []byte text.
func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}

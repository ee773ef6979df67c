// Package sql extracts table references from text and renders and validates
// the query templates generated for each table.
package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
)

// ErrMultipleStatements is wrapped with apperrors.ErrUnsafeQuery when a query
// has a semicolon outside string literals.
var ErrMultipleStatements = errors.New("multiple SQL statements")

// writeKeywordRegex matches statements that change data or schema.
var writeKeywordRegex = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|MERGE|UPSERT|DROP|ALTER|TRUNCATE|CREATE|GRANT|REVOKE|EXEC|EXECUTE|CALL)\b`)

// ValidateReadOnly checks that sqlQuery is one read-only statement and
// returns it trimmed, without its trailing semicolon. The statement must
// start with SELECT or WITH and contain no data-changing keyword or further
// semicolon outside string literals, so status = 'DELETE;' is allowed.
func ValidateReadOnly(sqlQuery string) (string, error) {
	normalized := strings.TrimSpace(sqlQuery)
	normalized = strings.TrimSpace(strings.TrimSuffix(normalized, ";"))

	code := blankStringLiterals(normalized)
	if strings.ContainsRune(code, ';') {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnsafeQuery, ErrMultipleStatements)
	}

	fields := strings.Fields(strings.TrimLeft(code, "( \t\n\r"))
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty query", apperrors.ErrUnsafeQuery)
	}
	if first := strings.ToUpper(fields[0]); first != "SELECT" && first != "WITH" {
		return "", fmt.Errorf("%w: must start with SELECT, got %s", apperrors.ErrUnsafeQuery, first)
	}
	if kw := writeKeywordRegex.FindString(code); kw != "" {
		return "", fmt.Errorf("%w: contains %s", apperrors.ErrUnsafeQuery, strings.ToUpper(kw))
	}
	return normalized, nil
}

// blankStringLiterals replaces the contents of quoted literals with spaces so
// keyword and semicolon checks only see SQL code. Both '' and \' escapes stay
// inside the literal.
func blankStringLiterals(sqlQuery string) string {
	var b strings.Builder
	b.Grow(len(sqlQuery))

	var quote rune
	prevChar := rune(0)
	for _, char := range sqlQuery {
		switch {
		case quote == 0 && (char == '\'' || char == '"'):
			quote = char
			b.WriteRune(char)
		case quote != 0 && char == quote && prevChar != '\\':
			quote = 0
			b.WriteRune(char)
		case quote != 0:
			b.WriteRune(' ')
		default:
			b.WriteRune(char)
		}
		prevChar = char
	}
	return b.String()
}

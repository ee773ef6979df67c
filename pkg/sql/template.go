package sql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
)

// Placeholder names used by the generated per-table query templates.
const (
	PlaceholderCondition = "condition"
	PlaceholderStartTime = "start_time"
	PlaceholderEndTime   = "end_time"
)

// placeholderRegex matches {name} placeholders. Names are lowercase
// identifiers, so JSON-like braces in a condition are left alone.
var placeholderRegex = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// limitSuffixRegex matches a trailing LIMIT clause.
var limitSuffixRegex = regexp.MustCompile(`(?i)\s+LIMIT\s+(\d+)\s*;?\s*$`)

// ExtractPlaceholders returns the distinct {name} placeholders in a template
// in order of first appearance.
func ExtractPlaceholders(template string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool)
	var names []string

	for _, match := range matches {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	return names
}

// RenderTemplate fills the placeholders of a query template and checks the
// result is a single read-only statement.
//
// Time values are quoted by the template itself ('{start_time}'), so they are
// screened with libinjection before substitution. The condition is a raw SQL
// fragment supplied by the operator and is only covered by the statement check.
//
// Example:
//
//	tmpl := "SELECT * FROM orders WHERE {condition} LIMIT 10"
//	query, err := RenderTemplate(tmpl, map[string]string{"condition": "cust_no = '12345'"})
//	// query == "SELECT * FROM orders WHERE cust_no = '12345' LIMIT 10"
func RenderTemplate(template string, values map[string]string) (string, error) {
	quoted := make(map[string]string)
	for _, name := range ExtractPlaceholders(template) {
		value, ok := values[name]
		if !ok || strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("%w: {%s}", apperrors.ErrMissingPlaceholder, name)
		}
		if name == PlaceholderStartTime || name == PlaceholderEndTime {
			quoted[name] = value
		}
	}

	if failures := CheckAllParameters(quoted); len(failures) > 0 {
		return "", fmt.Errorf("%w: {%s} looks like SQL injection (fingerprint %s)",
			apperrors.ErrUnsafeQuery, failures[0].ParamName, failures[0].Fingerprint)
	}
	for name, value := range quoted {
		if strings.ContainsRune(value, '\'') {
			return "", fmt.Errorf("%w: {%s} must not contain quotes", apperrors.ErrUnsafeQuery, name)
		}
	}

	rendered := placeholderRegex.ReplaceAllStringFunc(template, func(m string) string {
		return values[m[1:len(m)-1]]
	})

	return ValidateReadOnly(rendered)
}

// StripLimit removes a trailing LIMIT clause and returns it. SQL Server has
// no LIMIT, so its executor applies the value with TOP instead.
func StripLimit(query string) (string, int, bool) {
	m := limitSuffixRegex.FindStringSubmatchIndex(query)
	if m == nil {
		return query, 0, false
	}
	n, err := strconv.Atoi(query[m[2]:m[3]])
	if err != nil {
		return query, 0, false
	}
	return query[:m[0]], n, true
}

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Returning it as a tool result keeps the error visible to the model instead
// of being swallowed by the MCP client as a protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for errors the caller can act on (bad parameters, unknown bug,
// missing configuration). System failures are returned as Go errors.
//
// Example:
//
//	if traceID == "" {
//	    return NewErrorResult("invalid_input", "trace_id is required"), nil
//	}
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "unknown_table",
//	    "no query templates for table payments",
//	    map[string]any{"known_tables": []string{"orders", "order_items"}},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorCodes maps sentinel errors to the codes reported in tool results.
// Order matters: the first match wins.
var errorCodes = []struct {
	err  error
	code string
}{
	{apperrors.ErrNotFound, "not_found"},
	{apperrors.ErrConflict, "already_exists"},
	{apperrors.ErrInvalidInput, "invalid_input"},
	{apperrors.ErrUnknownTable, "unknown_table"},
	{apperrors.ErrMissingPlaceholder, "missing_parameter"},
	{apperrors.ErrUnsafeQuery, "security_violation"},
	{apperrors.ErrConfigNotFound, "config_not_found"},
	{apperrors.ErrConfigMalformed, "config_invalid"},
	{apperrors.ErrCredentialsKeyMismatch, "config_invalid"},
	{apperrors.ErrNotConnected, "not_configured"},
	{apperrors.ErrUnsupportedDatasource, "not_configured"},
}

// ErrorResultFor converts an actionable error into a structured tool result.
// Returns nil when err is a system failure that should be returned as a Go error.
func ErrorResultFor(err error) *mcp.CallToolResult {
	if err == nil {
		return nil
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return NewErrorResult(ec.code, err.Error())
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewErrorResult("timeout", err.Error())
	}
	return NewSQLErrorResult(err)
}

// sqlStateRegex matches PostgreSQL SQLSTATE codes in error messages like "(SQLSTATE 42601)"
var sqlStateRegex = regexp.MustCompile(`\(SQLSTATE ([0-9A-Z]{5})\)`)

// IsSQLUserError returns true if the error is caused by the SQL itself (bad
// syntax, missing table or column, invalid value) rather than a connection or
// server failure. The caller can fix the condition and retry.
//
// PostgreSQL SQLSTATE classes treated as user errors:
//   - 22xxx: Data Exception
//   - 42xxx: Syntax Error or Access Rule Violation
func IsSQLUserError(err error) bool {
	state, ok := sqlState(err)
	if !ok || len(state) < 2 {
		return false
	}
	switch state[:2] {
	case "22", "42":
		return true
	}
	return false
}

func sqlState(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}

	if matches := sqlStateRegex.FindStringSubmatch(err.Error()); len(matches) >= 2 {
		return matches[1], true
	}
	return "", false
}

// SQLUserErrorCode returns the tool error code for a SQL user error, or ""
// when err is not one.
func SQLUserErrorCode(err error) string {
	if !IsSQLUserError(err) {
		return ""
	}
	state, _ := sqlState(err)

	switch state {
	case "42601":
		return "syntax_error"
	case "42703":
		return "undefined_column"
	case "42P01":
		return "undefined_table"
	case "42501":
		return "permission_denied"
	case "22007", "22008":
		return "invalid_datetime"
	case "22P02":
		return "invalid_input"
	}

	if strings.HasPrefix(state, "22") {
		return "data_exception"
	}
	return "sql_error"
}

// ExtractSQLErrorMessage returns the database message without the SQLSTATE
// suffix and wrapping prefixes.
func ExtractSQLErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}

	msg := err.Error()
	if idx := strings.Index(msg, " (SQLSTATE"); idx != -1 {
		msg = msg[:idx]
	}
	for _, prefix := range []string{"query failed: ", "failed to execute query: ", "ERROR: "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}

// NewSQLErrorResult creates an error result from a SQL user error.
// Returns nil if the error is not a SQL user error.
func NewSQLErrorResult(err error) *mcp.CallToolResult {
	if !IsSQLUserError(err) {
		return nil
	}
	return NewErrorResult(SQLUserErrorCode(err), ExtractSQLErrorMessage(err))
}

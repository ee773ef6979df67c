package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/logging"
)

// maxArgumentLength is the number of characters of a string argument kept in logs.
const maxArgumentLength = 200

var sensitiveKeywords = []string{"password", "secret", "token", "credential", "key"}

// sqlStringLiteralPattern matches SQL string literals, including '' escapes.
var sqlStringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)

// MCPRequestLogger returns middleware that logs MCP JSON-RPC requests and
// responses: the method, tool name, sanitized arguments and any JSON-RPC
// error. Pass nil logger to disable logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			var rpcReq jsonRPCRequest
			if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil {
				logger.Debug("Failed to parse MCP request JSON", zap.Error(err))
			}

			toolName := rpcReq.Params.Name
			logger.Debug("MCP request",
				zap.String("method", rpcReq.Method),
				zap.String("tool", toolName),
				zap.Any("arguments", SanitizeArguments(rpcReq.Params.Arguments)),
			)

			recorder := newResponseRecorder(w, true)
			start := time.Now()
			next.ServeHTTP(recorder, r)
			duration := time.Since(start)

			var rpcResp jsonRPCResponse
			if err := json.Unmarshal(recorder.body.Bytes(), &rpcResp); err != nil {
				logger.Debug("Failed to parse MCP response JSON", zap.Error(err))
				return
			}

			if rpcResp.Error != nil {
				logger.Debug("MCP response error",
					zap.String("tool", toolName),
					zap.Int("error_code", rpcResp.Error.Code),
					zap.String("error_message", rpcResp.Error.Message),
					zap.Duration("duration", duration),
				)
				return
			}
			logger.Debug("MCP response success",
				zap.String("tool", toolName),
				zap.Bool("is_error", rpcResp.Result.IsError),
				zap.Duration("duration", duration),
			)
		})
	}
}

type jsonRPCRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type jsonRPCResponse struct {
	Result struct {
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *jsonRPCError `json:"error"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SanitizeArguments prepares tool arguments for logging. Values of
// sensitive-looking keys are redacted, string literals in SQL-like arguments
// are masked, long strings are truncated and nested objects are sanitized
// recursively.
func SanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	result := make(map[string]any, len(args))
	for k, v := range args {
		result[k] = sanitizeValue(k, v)
	}
	return result
}

func sanitizeValue(key string, value any) any {
	if isSensitiveKey(key) {
		return logging.RedactedText
	}

	switch val := value.(type) {
	case string:
		if isSQLKey(key) {
			val = sqlStringLiteralPattern.ReplaceAllString(val, "'***'")
		}
		return logging.TruncateString(val, maxArgumentLength)
	case map[string]any:
		return SanitizeArguments(val)
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// isSQLKey reports whether an argument carries SQL text.
func isSQLKey(key string) bool {
	lower := strings.ToLower(key)
	return lower == "sql" || lower == "query" || lower == "condition" ||
		strings.HasSuffix(lower, "_sql") || strings.HasSuffix(lower, "_query")
}

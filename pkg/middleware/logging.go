// Package middleware holds the HTTP middleware used by the MCP HTTP transport.
package middleware

import (
	"bytes"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger returns middleware that logs each HTTP request with its
// status, response size and duration. Server errors are logged at warn,
// everything else at debug. Pass nil logger to disable logging.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := newResponseRecorder(w, false)
			next.ServeHTTP(recorder, r)

			logger.Log(statusLevel(recorder.status), "HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.status),
				zap.Int("bytes", recorder.written),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

func statusLevel(status int) zapcore.Level {
	if status >= http.StatusInternalServerError {
		return zap.WarnLevel
	}
	return zap.DebugLevel
}

// responseRecorder tracks the status code and size of a response and, when
// body is non-nil, keeps a copy of what was written.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
	body    *bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter, captureBody bool) *responseRecorder {
	r := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
	if captureBody {
		r.body = &bytes.Buffer{}
	}
	return r
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.body != nil {
		r.body.Write(b)
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += n
	return n, err
}

// Flush lets streamed responses through the recorder.
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

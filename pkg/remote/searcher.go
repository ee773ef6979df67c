package remote

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/logging"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

// Searcher greps the log server for a trace identifier.
type Searcher struct {
	session Session
	opts    config.SearchOptionsConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewSearcher creates a searcher that runs its commands on session.
func NewSearcher(session Session, opts config.SearchOptionsConfig, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		session: session,
		opts:    opts,
		logger:  logger.Named("search"),
		now:     time.Now,
	}
}

// SearchByTraceID searches every *.log file under the base directory.
// Failures are reported in the result's Error field.
func (s *Searcher) SearchByTraceID(ctx context.Context, traceID string) models.SearchResult {
	timestamp := s.now().Format(time.RFC3339)

	traceID = strings.TrimSpace(traceID)
	if traceID == "" {
		return models.SearchResult{Error: "trace ID is required", Timestamp: timestamp}
	}
	if s.session == nil {
		return models.SearchResult{TraceID: traceID, Error: apperrors.ErrNotConnected.Error() + " to log server", Timestamp: timestamp}
	}

	command := BuildGrepCommand(traceID, s.opts)
	s.logger.Debug("Searching logs", zap.String("trace_id", traceID), zap.String("command", command))

	output, err := s.session.Run(ctx, command)
	if err != nil {
		s.logger.Error("Log search failed",
			zap.String("trace_id", traceID),
			zap.String("error", logging.SanitizeError(err)))
		return models.SearchResult{
			TraceID:   traceID,
			Command:   command,
			Error:     err.Error(),
			Timestamp: timestamp,
		}
	}

	result := models.SearchResult{
		TraceID:    traceID,
		Command:    command,
		Output:     output,
		LinesCount: CountLines(output),
		Timestamp:  timestamp,
	}
	s.logger.Info("Log search completed",
		zap.String("trace_id", traceID),
		zap.Int("lines", result.LinesCount))
	return result
}

// BuildGrepCommand returns the shell pipeline that searches for traceID, e.g.
//
//	grep -r -i -A 3 -B 3 'abc123' '/logs/'*.log | head -1000
//
// The base directory is quoted but the *.log glob is left for the remote shell.
func BuildGrepCommand(traceID string, opts config.SearchOptionsConfig) string {
	baseDir := opts.BaseDirectory
	if baseDir == "" {
		baseDir = "/logs/"
	}
	if !strings.HasSuffix(baseDir, "/") {
		baseDir += "/"
	}

	var b strings.Builder
	b.WriteString("grep -r")
	if opts.CaseInsensitiveValue() {
		b.WriteString(" -i")
	}
	if n := opts.ContextLinesValue(); n > 0 {
		lines := strconv.Itoa(n)
		b.WriteString(" -A " + lines + " -B " + lines)
	}
	b.WriteString(" " + ShellQuote(traceID))
	b.WriteString(" " + ShellQuote(baseDir) + "*.log")
	if n := opts.MaxLinesValue(); n > 0 {
		b.WriteString(" | head -" + strconv.Itoa(n))
	}
	return b.String()
}

// ShellQuote wraps s in single quotes for a POSIX shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// CountLines counts the non-empty lines of output.
func CountLines(output string) int {
	count := 0
	for line := range strings.SplitSeq(output, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// Search dials the log server, searches for traceID and disconnects.
// Connection failures are reported in the result like search failures.
func Search(ctx context.Context, dialer Dialer, cfg *config.Config, traceID string, logger *zap.Logger) models.SearchResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	var result models.SearchResult
	err := WithSession(ctx, dialer, cfg.LogServer, func(session Session) error {
		result = NewSearcher(session, cfg.SearchOptions, logger).SearchByTraceID(ctx, traceID)
		return nil
	})
	if err == nil {
		return result
	}
	if result.Timestamp != "" {
		logger.Warn("Failed to close log server session", zap.String("error", logging.SanitizeError(err)))
		return result
	}

	msg := err.Error()
	if errors.Is(err, context.Canceled) {
		msg = "search cancelled"
	}
	return models.SearchResult{
		TraceID:   strings.TrimSpace(traceID),
		Error:     logging.SanitizeError(errors.New(msg)),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// Preview returns up to n non-empty lines of output, each cut to width runes.
func Preview(output string, n, width int) []string {
	lines := []string{}
	for line := range strings.SplitSeq(output, "\n") {
		if len(lines) >= n {
			break
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, logging.TruncateString(line, width))
	}
	return lines
}

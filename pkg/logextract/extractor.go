// Package logextract pulls business information out of raw log text.
package logextract

import (
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

// DefaultIdentifierFields are the log fields whose numeric values identify a customer.
var DefaultIdentifierFields = []string{"custNo", "hboneNo"}

var (
	// Keywords match anywhere in the line so that MyBatis output
	// ("Updates: 1") and client class names (PaymentApi) are caught.
	dataStatementPattern = regexp.MustCompile(`(?i)SELECT|INSERT|UPDATE|DELETE`)
	errorPattern         = regexp.MustCompile(`(?i)Exception|Error`)
	externalCallPattern  = regexp.MustCompile(`(?i)https?://|api`)
)

// Extractor classifies log lines. It is safe for concurrent use.
type Extractor struct {
	identifierPattern *regexp.Regexp
	traces            *TraceFinder
}

var defaultExtractor = New()

// New creates an extractor that collects the values of the given identifier
// fields. With no fields, DefaultIdentifierFields are used.
func New(fields ...string) *Extractor {
	var quoted []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			quoted = append(quoted, regexp.QuoteMeta(f))
		}
	}
	if len(quoted) == 0 {
		for _, f := range DefaultIdentifierFields {
			quoted = append(quoted, regexp.QuoteMeta(f))
		}
	}

	// custNo=123, custNo: 123, "custNo":"123", order_custNo=123
	pattern := `(?i)(?:` + strings.Join(quoted, "|") + `)"?\s*[=:]\s*"?(\d+)`
	return &Extractor{identifierPattern: regexp.MustCompile(pattern)}
}

// NewWithPatterns creates an extractor from a project's extraction patterns.
// The project's identifier fields take precedence over fields. Trace
// identifiers are reported when the project lists trace id patterns.
func NewWithPatterns(patterns models.ExtractionPatterns, fields ...string) (*Extractor, error) {
	if len(patterns.UserIDFields) > 0 {
		fields = patterns.UserIDFields
	}
	e := New(fields...)
	if len(patterns.TraceIDPatterns) == 0 {
		return e, nil
	}

	traces, err := NewTraceFinder(patterns.TraceIDPatterns)
	if err != nil {
		return nil, err
	}
	e.traces = traces
	return e, nil
}

// Extract runs the default extractor over text.
func Extract(text string) models.ExtractionResult {
	return defaultExtractor.Extract(text)
}

// Extract classifies each line of text. A line can land in several
// categories. Lines are trimmed and blank lines ignored; identifiers are
// deduplicated in order of first appearance.
func (e *Extractor) Extract(text string) models.ExtractionResult {
	result := models.NewExtractionResult()
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if dataStatementPattern.MatchString(line) {
			result.DataStatements = append(result.DataStatements, line)
		}
		if errorPattern.MatchString(line) {
			result.ErrorSignatures = append(result.ErrorSignatures, line)
		}
		if externalCallPattern.MatchString(line) {
			result.ExternalCallSignatures = append(result.ExternalCallSignatures, line)
		}

		for _, m := range e.identifierPattern.FindAllStringSubmatch(line, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				result.UserIdentifiers = append(result.UserIdentifiers, m[1])
			}
		}
	}

	if e.traces != nil {
		result.TraceIDs = e.traces.Find(text)
	}
	return result
}

package models

// ExtractionResult holds business information pulled out of raw log text.
//
// The three signature slices keep every matching line in source order,
// duplicates included. UserIdentifiers is deduplicated.
type ExtractionResult struct {
	DataStatements         []string `json:"dataStatements"`
	ErrorSignatures        []string `json:"errorSignatures"`
	ExternalCallSignatures []string `json:"externalCallSignatures"`
	UserIdentifiers        []string `json:"userIdentifiers"`
	// TraceIDs are the trace identifiers found by the project's trace id
	// patterns. Nil when no patterns were configured.
	TraceIDs []string `json:"traceIds,omitempty"`
}

// NewExtractionResult returns a result with empty, non-nil containers so it
// serializes as [] rather than null.
func NewExtractionResult() ExtractionResult {
	return ExtractionResult{
		DataStatements:         []string{},
		ErrorSignatures:        []string{},
		ExternalCallSignatures: []string{},
		UserIdentifiers:        []string{},
	}
}

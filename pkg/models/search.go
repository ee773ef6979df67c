package models

// SearchResult is the outcome of a remote log search for one trace identifier.
// On failure Error is set and Output is empty.
type SearchResult struct {
	TraceID    string `json:"traceId"`
	Command    string `json:"command,omitempty"`
	Output     string `json:"output,omitempty"`
	LinesCount int    `json:"linesCount"`
	Timestamp  string `json:"timestamp"`
	Error      string `json:"error,omitempty"`
}

// Failed reports whether the search produced an error instead of output.
func (r SearchResult) Failed() bool {
	return r.Error != ""
}

package models

import "time"

// BugfixSession is the metadata stored alongside the artifacts of one bug investigation.
type BugfixSession struct {
	BugID       string    `json:"bugId"`
	SessionID   string    `json:"sessionId"`
	TraceID     string    `json:"traceId,omitempty"`
	BugURL      string    `json:"bugUrl,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BugAnalysis is the result of searching and analyzing the logs for a bug.
type BugAnalysis struct {
	BugID            string             `json:"bugId"`
	TraceID          string             `json:"traceId"`
	Search           SearchResult       `json:"search"`
	Extraction       ExtractionResult   `json:"extraction"`
	ReferencedTables []string           `json:"referencedTables"`
	Scenarios        []BusinessScenario `json:"scenarios"`
	SuggestedQueries map[string]string  `json:"suggestedQueries,omitempty"`
	LogFile          string             `json:"logFile,omitempty"`
	AnalysisFile     string             `json:"analysisFile,omitempty"`
}

// BugReport holds the free-form findings that make up a bug analysis report.
type BugReport struct {
	BugID               string `json:"bugId"`
	BugURL              string `json:"bugUrl,omitempty"`
	TraceID             string `json:"traceId,omitempty"`
	UserInfo            string `json:"userInfo,omitempty"`
	BusinessScenario    string `json:"businessScenario,omitempty"`
	InterfaceParams     string `json:"interfaceParams,omitempty"`
	LogAnalysis         string `json:"logAnalysis,omitempty"`
	TableData           string `json:"tableData,omitempty"`
	ExternalAPIResponse string `json:"externalApiResponse,omitempty"`
	ProblemLocation     string `json:"problemLocation,omitempty"`
	PossibleCause       string `json:"possibleCause,omitempty"`
	ImpactScope         string `json:"impactScope,omitempty"`
	FixSuggestions      string `json:"fixSuggestions,omitempty"`
}

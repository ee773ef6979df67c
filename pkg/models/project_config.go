// Package models contains domain types for ekaya-bugfix.
package models

// UnknownBusinessType is assigned to services whose class name matches no business rule.
const UnknownBusinessType = "unknown"

// ProjectConfig is the consolidated artifact produced by the project analyzer.
// It is written once per analysis run and treated as read-only afterwards.
type ProjectConfig struct {
	ProjectInfo        ProjectInfo               `json:"projectInfo"`
	RepositoryMapping  map[string]string         `json:"repositoryMapping"`
	ServiceMapping     map[string]ServiceInfo    `json:"serviceMapping"`
	BusinessScenarios  []BusinessScenario        `json:"businessScenarios"`
	ExtractionPatterns ExtractionPatterns        `json:"extractionPatterns"`
	DatabaseQueries    map[string]QueryTemplates `json:"databaseQueries"`
}

// ProjectInfo holds project metadata and summary counts.
type ProjectInfo struct {
	Name              string `json:"name"`
	AnalyzedAt        string `json:"analyzedAt"`
	TotalRepositories int    `json:"totalRepositories"`
	TotalServices     int    `json:"totalServices"`
}

// ServiceInfo describes a service class found during analysis.
//
// Tables is derived by looking up each entry of Repositories in the repository
// mapping. Repositories that were not inferred are skipped, so Tables may be
// shorter than Repositories.
type ServiceInfo struct {
	Description  string   `json:"description"`
	Tables       []string `json:"tables"`
	BusinessType string   `json:"businessType"`
	Repositories []string `json:"repositories"`
}

// BusinessScenario groups the services that share a business type.
type BusinessScenario struct {
	Scenario        string   `json:"scenario"`
	RelatedServices []string `json:"relatedServices"`
	CoreTables      []string `json:"coreTables"`
	CommonIssues    []string `json:"commonIssues"`
}

// ExtractionPatterns lists the static patterns used when reading logs.
type ExtractionPatterns struct {
	TraceIDPatterns []string `json:"traceIdPatterns"`
	UserIDFields    []string `json:"userIdFields"`
}

// QueryTemplates are per-table SQL templates with {condition}, {start_time}
// and {end_time} placeholders.
type QueryTemplates struct {
	BasicQuery     string `json:"basicQuery"`
	CountQuery     string `json:"countQuery"`
	TimeRangeQuery string `json:"timeRangeQuery"`
}

// Query template kinds accepted by QueryTemplates.Get.
const (
	QueryKindBasic     = "basic"
	QueryKindCount     = "count"
	QueryKindTimeRange = "timerange"
)

// Get returns the template for kind, or false if kind is not recognized.
func (q QueryTemplates) Get(kind string) (string, bool) {
	switch kind {
	case QueryKindBasic, "":
		return q.BasicQuery, true
	case QueryKindCount:
		return q.CountQuery, true
	case QueryKindTimeRange:
		return q.TimeRangeQuery, true
	default:
		return "", false
	}
}

// ScenarioFor returns the scenario with the given business type.
func (c *ProjectConfig) ScenarioFor(businessType string) (BusinessScenario, bool) {
	for _, s := range c.BusinessScenarios {
		if s.Scenario == businessType {
			return s, true
		}
	}
	return BusinessScenario{}, false
}

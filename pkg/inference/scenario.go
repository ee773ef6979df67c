package inference

import (
	"sort"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

// UnknownIssue is listed for business types without catalogued issues.
const UnknownIssue = "unknown issue"

// CommonIssues catalogues the failures typically seen per business type.
var CommonIssues = map[string][]string{
	"payment":  {"payment status error", "amount calculation error", "freeze/unfreeze failed"},
	"deposit":  {"amount calculation error", "transaction status error", "share calculation error"},
	"query":    {"data inconsistency", "query timeout", "permission validation failed"},
	"holdings": {"share calculation error", "profit calculation error", "data delay"},
}

// IssuesFor returns a copy of the catalogued issues for businessType.
func IssuesFor(businessType string) []string {
	issues, ok := CommonIssues[businessType]
	if !ok {
		return []string{UnknownIssue}
	}
	return append([]string(nil), issues...)
}

// AggregateScenarios groups services by business type. Each scenario's core
// tables are the union of its services' tables. Scenarios are ordered by the
// first service, in name order, that has their type.
func AggregateScenarios(services map[string]models.ServiceInfo) []models.BusinessScenario {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	index := make(map[string]int)
	tableSets := make(map[string]map[string]bool)
	scenarios := []models.BusinessScenario{}

	for _, name := range names {
		svc := services[name]
		bt := svc.BusinessType
		if bt == "" {
			bt = models.UnknownBusinessType
		}

		i, ok := index[bt]
		if !ok {
			i = len(scenarios)
			index[bt] = i
			tableSets[bt] = make(map[string]bool)
			scenarios = append(scenarios, models.BusinessScenario{
				Scenario:        bt,
				RelatedServices: []string{},
				CommonIssues:    IssuesFor(bt),
			})
		}

		scenarios[i].RelatedServices = append(scenarios[i].RelatedServices, name)
		for _, table := range svc.Tables {
			tableSets[bt][table] = true
		}
	}

	for i := range scenarios {
		set := tableSets[scenarios[i].Scenario]
		tables := make([]string, 0, len(set))
		for table := range set {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		scenarios[i].CoreTables = tables
	}

	return scenarios
}

package inference

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

// tableKey normalizes a table name for comparison, so "Order", "orders" and
// "order" compare equal.
func tableKey(table string) string {
	return inflection.Singular(strings.ToLower(table))
}

// ResolveTable finds the configured table for name, accepting a different
// case or the singular/plural form.
func ResolveTable(cfg *models.ProjectConfig, name string) (string, bool) {
	if cfg == nil {
		return "", false
	}
	if _, ok := cfg.DatabaseQueries[name]; ok {
		return name, true
	}

	key := tableKey(name)
	for _, table := range Tables(cfg) {
		if tableKey(table) == key {
			return table, true
		}
	}
	return "", false
}

// MatchScenarios returns the scenarios whose core tables include any of
// tables, in configuration order. Names are compared by singular form.
func MatchScenarios(cfg *models.ProjectConfig, tables []string) []models.BusinessScenario {
	matched := []models.BusinessScenario{}
	if cfg == nil || len(tables) == 0 {
		return matched
	}

	wanted := make(map[string]bool, len(tables))
	for _, t := range tables {
		wanted[tableKey(t)] = true
	}

	for _, scenario := range cfg.BusinessScenarios {
		for _, core := range scenario.CoreTables {
			if wanted[tableKey(core)] {
				matched = append(matched, scenario)
				break
			}
		}
	}
	return matched
}

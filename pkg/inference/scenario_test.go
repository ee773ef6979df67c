package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
)

func TestAggregateScenarios(t *testing.T) {
	services := map[string]models.ServiceInfo{
		"OrderQueryService":   {BusinessType: "query", Tables: []string{"orders", "order_item"}},
		"HoldingsService":     {BusinessType: "holdings", Tables: []string{"cust_hold"}},
		"AccountQueryService": {BusinessType: "query", Tables: []string{"account", "orders"}},
		"NoticeService":       {BusinessType: models.UnknownBusinessType, Tables: []string{}},
		"PaymentService":      {BusinessType: "payment", Tables: nil},
	}

	scenarios := AggregateScenarios(services)

	require.Len(t, scenarios, 4)
	// Ordered by first service name per type: AccountQueryService, HoldingsService,
	// NoticeService, PaymentService.
	assert.Equal(t, models.BusinessScenario{
		Scenario:        "query",
		RelatedServices: []string{"AccountQueryService", "OrderQueryService"},
		CoreTables:      []string{"account", "order_item", "orders"},
		CommonIssues:    []string{"data inconsistency", "query timeout", "permission validation failed"},
	}, scenarios[0])
	assert.Equal(t, "holdings", scenarios[1].Scenario)
	assert.Equal(t, []string{"cust_hold"}, scenarios[1].CoreTables)
	assert.Equal(t, models.BusinessScenario{
		Scenario:        models.UnknownBusinessType,
		RelatedServices: []string{"NoticeService"},
		CoreTables:      []string{},
		CommonIssues:    []string{UnknownIssue},
	}, scenarios[2])
	assert.Equal(t, "payment", scenarios[3].Scenario)
	assert.Equal(t, []string{}, scenarios[3].CoreTables)
}

func TestAggregateScenarios_PartitionsServices(t *testing.T) {
	services := map[string]models.ServiceInfo{
		"AService": {BusinessType: "trade", Tables: []string{"t1"}},
		"BService": {BusinessType: "order", Tables: []string{"t2", "t1"}},
		"CService": {BusinessType: "trade", Tables: []string{"t3"}},
		"DService": {BusinessType: "", Tables: []string{"t4"}},
	}

	seen := make(map[string]int)
	for _, s := range AggregateScenarios(services) {
		for _, name := range s.RelatedServices {
			seen[name]++
			assert.Equal(t, s.Scenario, orUnknown(services[name].BusinessType))
		}

		union := make(map[string]bool)
		for _, name := range s.RelatedServices {
			for _, table := range services[name].Tables {
				union[table] = true
			}
		}
		assert.Len(t, s.CoreTables, len(union))
		for _, table := range s.CoreTables {
			assert.True(t, union[table], "core table %s not used by any member", table)
		}
	}

	assert.Equal(t, map[string]int{"AService": 1, "BService": 1, "CService": 1, "DService": 1}, seen)
}

func orUnknown(bt string) string {
	if bt == "" {
		return models.UnknownBusinessType
	}
	return bt
}

func TestAggregateScenarios_Empty(t *testing.T) {
	assert.Equal(t, []models.BusinessScenario{}, AggregateScenarios(nil))
}

func TestIssuesFor(t *testing.T) {
	assert.Equal(t, []string{"amount calculation error", "transaction status error", "share calculation error"}, IssuesFor("deposit"))
	assert.Equal(t, []string{"unknown issue"}, IssuesFor("trade"))

	issues := IssuesFor("payment")
	issues[0] = "changed"
	assert.Equal(t, "payment status error", CommonIssues["payment"][0], "callers get a copy")
}

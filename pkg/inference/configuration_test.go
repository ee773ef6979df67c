package inference

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/source"
)

func TestQueryTemplatesFor(t *testing.T) {
	q := QueryTemplatesFor("orders")
	assert.Equal(t, "SELECT * FROM orders WHERE {condition} LIMIT 10", q.BasicQuery)
	assert.Equal(t, "SELECT COUNT(*) FROM orders WHERE {condition}", q.CountQuery)
	assert.Equal(t, "SELECT * FROM orders WHERE created_time >= '{start_time}' AND created_time <= '{end_time}' LIMIT 20", q.TimeRangeQuery)
}

func TestAnalyze_EndToEnd(t *testing.T) {
	files := []source.File{
		javaFile("/work/shop/src/OrderRepository.java", `
public interface OrderRepository extends JpaRepository<Order, Long> {
    @Query(value = "SELECT * FROM orders WHERE cust_no = ?1", nativeQuery = true)
    List<Order> byCustomer(String custNo);

    @Query(value = "SELECT * FROM archive_orders WHERE id = ?1", nativeQuery = true)
    Order archived(Long id);

    @Modifying
    @Query(value = "UPDATE orders SET status = ?2 WHERE id = ?1", nativeQuery = true)
    void mark(Long id, String status);
}`),
		javaFile("/work/shop/src/OrderQueryService.java", `
/**
 * Order query service
 */
@Service
public class OrderQueryService {
    @Autowired
    private OrderRepository orderRepository;
}`),
	}
	now := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

	cfg := Analyze("/work/shop", files, now, zap.NewNop())

	assert.Equal(t, models.ProjectInfo{
		Name:              "shop",
		AnalyzedAt:        "2024-01-15T08:30:00Z",
		TotalRepositories: 1,
		TotalServices:     1,
	}, cfg.ProjectInfo)
	assert.Equal(t, map[string]string{"OrderRepository": "orders"}, cfg.RepositoryMapping)

	svc := cfg.ServiceMapping["OrderQueryService"]
	assert.Equal(t, []string{"orders"}, svc.Tables)
	assert.Equal(t, "query", svc.BusinessType)
	assert.Equal(t, "Order query service", svc.Description)

	require.Len(t, cfg.BusinessScenarios, 1)
	assert.Equal(t, []string{"orders"}, cfg.BusinessScenarios[0].CoreTables)
	assert.Equal(t, []string{"OrderQueryService"}, cfg.BusinessScenarios[0].RelatedServices)

	assert.Equal(t, []string{"orders"}, Tables(cfg))
	assert.Equal(t, QueryTemplatesFor("orders"), cfg.DatabaseQueries["orders"])
	assert.Equal(t, UserIDFields, cfg.ExtractionPatterns.UserIDFields)
	assert.Len(t, cfg.ExtractionPatterns.TraceIDPatterns, 5)
}

func TestAnalyze_TablesAreDerivedFromRepositoryMapping(t *testing.T) {
	files := []source.File{
		javaFile("PayRepository.java", `@Table(name = "pay_record") interface PayRepository {}`),
		javaFile("RefundRepository.java", `@Table(name = "pay_record") interface RefundRepository {}`),
		javaFile("PaymentService.java", `class PaymentService {
    @Autowired PayRepository pay;
    @Autowired RefundRepository refund;
    @Autowired GhostRepository ghost;
}`),
	}

	cfg := Analyze(filepath.Join(t.TempDir(), "pay"), files, time.Now(), nil)

	values := make(map[string]bool)
	for _, table := range cfg.RepositoryMapping {
		values[table] = true
	}
	for _, svc := range cfg.ServiceMapping {
		for _, table := range svc.Tables {
			assert.True(t, values[table], "service table %s not in repository mapping", table)
		}
	}
	for _, s := range cfg.BusinessScenarios {
		for _, table := range s.CoreTables {
			assert.True(t, values[table], "core table %s not in repository mapping", table)
		}
	}

	assert.Equal(t, []string{"pay_record"}, cfg.ServiceMapping["PaymentService"].Tables)
	assert.Len(t, cfg.DatabaseQueries, 1)
	assert.Equal(t, "pay", cfg.ProjectInfo.Name)
}

func TestBuildConfig_JSONShape(t *testing.T) {
	cfg := BuildConfig("empty", map[string]string{}, map[string]models.ServiceInfo{}, nil, time.Unix(0, 0))

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"projectInfo", "repositoryMapping", "serviceMapping", "businessScenarios", "extractionPatterns", "databaseQueries"} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, `[]`, string(raw["businessScenarios"]))
	assert.JSONEq(t, `{}`, string(raw["repositoryMapping"]))
}

package inference

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/source"
)

const serviceSuffix = "Service"

// BusinessRule maps a class-name keyword to a business type.
type BusinessRule struct {
	Keyword      string
	BusinessType string
}

// BusinessRules are checked in order and the first keyword found in the
// lowercased class name decides the type, so PaymentQueryService is "query".
var BusinessRules = []BusinessRule{
	{Keyword: "Query", BusinessType: "query"},
	{Keyword: "Create", BusinessType: "create"},
	{Keyword: "Update", BusinessType: "update"},
	{Keyword: "Delete", BusinessType: "delete"},
	{Keyword: "Payment", BusinessType: "payment"},
	{Keyword: "Subs", BusinessType: "deposit"},
	{Keyword: "Holdings", BusinessType: "holdings"},
	{Keyword: "Trade", BusinessType: "trade"},
	{Keyword: "Order", BusinessType: "order"},
	{Keyword: "Validate", BusinessType: "validate"},
	{Keyword: "Migrate", BusinessType: "migrate"},
}

var (
	serviceClassPattern = regexp.MustCompile(`\bclass\s+(\w+Service)\b`)
	docCommentPattern   = regexp.MustCompile(`(?s)/\*\*(.*?)\*/`)
	// An injection annotation followed by a Repository type before the end of
	// the declaration.
	injectionPattern = regexp.MustCompile(`(?s)@(?:Autowired|Resource|Inject)\b[^;]*?\b(\w+Repository)\b`)
)

// InferServices describes each service class found in files and links it to
// the tables of the repositories it injects. Repositories missing from
// repositories are kept in the service's Repositories but contribute no table.
func InferServices(files []source.File, repositories map[string]string, logger *zap.Logger) map[string]models.ServiceInfo {
	if logger == nil {
		logger = zap.NewNop()
	}

	services := make(map[string]models.ServiceInfo)
	for _, f := range files {
		if !strings.HasSuffix(f.Stem(), serviceSuffix) {
			continue
		}

		class, info, ok := InferService(f.Text, repositories)
		if !ok {
			logger.Debug("No service class declared",
				zap.String("path", f.Path))
			continue
		}
		services[class] = info

		logger.Debug("Inferred service",
			zap.String("class", class),
			zap.String("business_type", info.BusinessType),
			zap.Strings("tables", info.Tables))
	}

	return services
}

// InferService extracts the service class declared in text. ok is false when
// there is none.
func InferService(text string, repositories map[string]string) (string, models.ServiceInfo, bool) {
	loc := serviceClassPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", models.ServiceInfo{}, false
	}
	class := text[loc[2]:loc[3]]

	refs := InjectedRepositories(text)
	return class, models.ServiceInfo{
		Description:  Description(text[:loc[0]]),
		Tables:       ResolveTables(refs, repositories),
		BusinessType: ClassifyBusinessType(class),
		Repositories: refs,
	}, true
}

// ClassifyBusinessType returns the type of the first BusinessRule whose
// keyword occurs in class, ignoring case, or models.UnknownBusinessType.
func ClassifyBusinessType(class string) string {
	lower := strings.ToLower(class)
	for _, rule := range BusinessRules {
		if strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			return rule.BusinessType
		}
	}
	return models.UnknownBusinessType
}

// Description returns the first line of the last doc comment in text, which is
// expected to end at the class declaration.
func Description(text string) string {
	blocks := docCommentPattern.FindAllStringSubmatch(text, -1)
	if len(blocks) == 0 {
		return ""
	}

	for _, line := range strings.Split(blocks[len(blocks)-1][1], "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			return line
		}
	}
	return ""
}

// InjectedRepositories returns the distinct Repository types injected in text, sorted.
func InjectedRepositories(text string) []string {
	seen := make(map[string]bool)
	refs := []string{}
	for _, m := range injectionPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	sort.Strings(refs)
	return refs
}

// ResolveTables looks up each repository and returns the distinct tables
// found, in the order of refs. Unknown repositories are skipped.
func ResolveTables(refs []string, repositories map[string]string) []string {
	seen := make(map[string]bool)
	tables := []string{}
	for _, ref := range refs {
		table, ok := repositories[ref]
		if !ok || seen[table] {
			continue
		}
		seen[table] = true
		tables = append(tables, table)
	}
	return tables
}

// Package inference derives a project map from source text: persistence
// classes and their tables, service classes and their business type, and the
// scenarios that group them. Everything is pattern matching over raw text and
// every step falls back to a weaker guess instead of failing.
package inference

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/source"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/sql"
)

const repositorySuffix = "Repository"

// TableSource records which rule produced a repository's table name.
type TableSource string

const (
	TableFromAnnotation TableSource = "annotation"
	TableFromSQL        TableSource = "sql"
	TableFromClassName  TableSource = "class_name"
)

var (
	tableAnnotationPattern = regexp.MustCompile(`@Table\s*\(\s*name\s*=\s*"([^"]+)"`)
	repositoryClassPattern = regexp.MustCompile(`\b(?:class|interface)\s+(\w+Repository)\b`)
	camelBoundaryPattern   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// InferRepositories maps each repository class found in files to its table.
// Only files whose name ends in "Repository" are considered. When two files
// declare the same class, the later one wins.
func InferRepositories(files []source.File, logger *zap.Logger) map[string]string {
	if logger == nil {
		logger = zap.NewNop()
	}

	repositories := make(map[string]string)
	for _, f := range files {
		if !strings.HasSuffix(f.Stem(), repositorySuffix) {
			continue
		}

		class, table, from, ok := InferRepository(f.Text)
		if !ok {
			logger.Debug("No repository class declared",
				zap.String("path", f.Path))
			continue
		}

		if prev, exists := repositories[class]; exists && prev != table {
			logger.Warn("Duplicate repository class, keeping last",
				zap.String("class", class),
				zap.String("path", f.Path),
				zap.String("previous_table", prev),
				zap.String("table", table))
		}
		repositories[class] = table

		logger.Debug("Inferred repository table",
			zap.String("class", class),
			zap.String("table", table),
			zap.String("source", string(from)))
	}

	return repositories
}

// InferRepository finds the repository class declared in text and its table.
// The table comes from the first rule that applies: an explicit
// @Table(name = "...") annotation, the table referenced most often by SQL in
// the file, or the class name in snake case. ok is false when text declares
// no repository class.
func InferRepository(text string) (class, table string, from TableSource, ok bool) {
	m := repositoryClassPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", "", false
	}
	class = m[1]

	if a := tableAnnotationPattern.FindStringSubmatch(text); a != nil {
		return class, a[1], TableFromAnnotation, true
	}
	if t, found := sql.MostFrequentTable(text); found {
		return class, t, TableFromSQL, true
	}
	return class, TableNameFromClass(class), TableFromClassName, true
}

// TableNameFromClass strips the Repository suffix and converts the rest to
// snake case: TpDealRepository -> tp_deal.
func TableNameFromClass(class string) string {
	name := strings.TrimSuffix(class, repositorySuffix)
	return strings.ToLower(camelBoundaryPattern.ReplaceAllString(name, "${1}_${2}"))
}

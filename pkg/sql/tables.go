package sql

import (
	"regexp"
	"strings"
)

// tableRefPattern matches the table named after FROM, UPDATE, INSERT INTO and
// DELETE FROM. DELETE FROM is one alternative so its table is counted once.
var tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|UPDATE|INSERT\s+INTO|DELETE\s+FROM)\s+(\w+)`)

// TableReferences returns every table identifier that follows a
// data-manipulation keyword in text, in order of appearance with duplicates.
// text may be a single statement, a log line, or a whole source file.
func TableReferences(text string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables
}

// MostFrequentTable returns the identifier referenced most often in text.
// Ties go to the identifier that was referenced first.
func MostFrequentTable(text string) (string, bool) {
	refs := TableReferences(text)
	if len(refs) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(refs))
	var order []string
	for _, ref := range refs {
		if counts[ref] == 0 {
			order = append(order, ref)
		}
		counts[ref]++
	}

	best := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best, true
}

// UniqueTables returns the distinct table names referenced across statements,
// lowercased, in order of first appearance.
func UniqueTables(statements []string) []string {
	seen := make(map[string]bool)
	tables := []string{}
	for _, stmt := range statements {
		for _, ref := range TableReferences(stmt) {
			name := strings.ToLower(ref)
			if !seen[name] {
				seen[name] = true
				tables = append(tables, name)
			}
		}
	}
	return tables
}

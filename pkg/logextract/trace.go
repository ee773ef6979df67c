package logextract

import (
	"fmt"
	"regexp"
	"sort"
)

// TraceFinder finds trace identifiers using the patterns recorded in a
// project configuration. Each pattern's first group is the identifier.
type TraceFinder struct {
	patterns []*regexp.Regexp
}

// NewTraceFinder compiles patterns. Matching ignores case.
func NewTraceFinder(patterns []string) (*TraceFinder, error) {
	f := &TraceFinder{}
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("invalid trace id pattern %q: %w", p, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("trace id pattern %q has no capture group", p)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Find returns the distinct trace identifiers in text in order of first appearance.
func (f *TraceFinder) Find(text string) []string {
	type match struct {
		pos int
		id  string
	}
	var matches []match
	for _, re := range f.patterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if m[2] >= 0 {
				matches = append(matches, match{pos: m[2], id: text[m[2]:m[3]]})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	seen := make(map[string]bool)
	ids := []string{}
	for _, m := range matches {
		if !seen[m.id] {
			seen[m.id] = true
			ids = append(ids, m.id)
		}
	}
	return ids
}

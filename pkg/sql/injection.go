package sql

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a template value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // Placeholder the value was supplied for
	ParamValue  string
}

// CheckParameterForInjection uses libinjection to detect SQL injection patterns
// in a value supplied for a query template placeholder.
//
// Returns nil if no injection is detected.
//
// Example:
//
//	result := CheckParameterForInjection("start_time", "2024-01-15")
//	// result == nil
//
//	result = CheckParameterForInjection("start_time", "' OR '1'='1")
//	// result.IsSQLi == true
func CheckParameterForInjection(paramName, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		ParamName:   paramName,
		ParamValue:  value,
	}
}

// CheckAllParameters checks every value and returns the failures ordered by
// placeholder name. Returns nil if all values are clean.
func CheckAllParameters(params map[string]string) []*InjectionCheckResult {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []*InjectionCheckResult
	for _, name := range names {
		if result := CheckParameterForInjection(name, params[name]); result != nil {
			results = append(results, result)
		}
	}
	return results
}

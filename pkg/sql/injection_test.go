package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckParameterForInjection(t *testing.T) {
	tests := []struct {
		name            string
		value           string
		expectInjection bool
	}{
		{name: "date", value: "2024-01-15", expectInjection: false},
		{name: "customer number", value: "12345", expectInjection: false},
		{name: "uuid", value: "550e8400-e29b-41d4-a716-446655440000", expectInjection: false},
		{name: "classic quote injection", value: "' OR '1'='1", expectInjection: true},
		{name: "drop table", value: "'; DROP TABLE users--", expectInjection: true},
		{name: "union select", value: "1 UNION SELECT * FROM passwords", expectInjection: true},
		{name: "comment", value: "admin'--", expectInjection: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckParameterForInjection("start_time", tt.value)
			if !tt.expectInjection {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.True(t, result.IsSQLi)
			assert.NotEmpty(t, result.Fingerprint)
			assert.Equal(t, "start_time", result.ParamName)
			assert.Equal(t, tt.value, result.ParamValue)
		})
	}
}

func TestCheckAllParameters(t *testing.T) {
	assert.Nil(t, CheckAllParameters(map[string]string{
		"start_time": "2024-01-15",
		"end_time":   "2024-01-16",
	}))

	results := CheckAllParameters(map[string]string{
		"start_time": "' OR 1=1--",
		"end_time":   "'; DROP TABLE users--",
		"condition":  "12345",
	})
	require.Len(t, results, 2)
	assert.Equal(t, "end_time", results[0].ParamName)
	assert.Equal(t, "start_time", results[1].ParamName)
}

package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
)

func TestValidateReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "select", input: "SELECT * FROM orders WHERE cust_no = '12345' LIMIT 10", want: "SELECT * FROM orders WHERE cust_no = '12345' LIMIT 10"},
		{name: "lowercase select", input: "select count(*) from orders", want: "select count(*) from orders"},
		{name: "trailing semicolon", input: "SELECT 1;", want: "SELECT 1"},
		{name: "trailing semicolon and whitespace", input: "  SELECT 1 ;\n", want: "SELECT 1"},
		{name: "semicolon inside literal", input: "SELECT * FROM orders WHERE remark = 'a;b';", want: "SELECT * FROM orders WHERE remark = 'a;b'"},
		{name: "semicolon after doubled quote", input: "SELECT 'it''s;here'", want: "SELECT 'it''s;here'"},
		{name: "semicolon after escaped quote", input: `SELECT 'test\';more'`, want: `SELECT 'test\';more'`},
		{name: "with prefix", input: "WITH recent AS (SELECT * FROM orders) SELECT * FROM recent", want: "WITH recent AS (SELECT * FROM orders) SELECT * FROM recent"},
		{name: "parenthesized", input: "(SELECT 1)", want: "(SELECT 1)"},
		{name: "column names containing keywords", input: "SELECT * FROM orders WHERE updated_by = 1", want: "SELECT * FROM orders WHERE updated_by = 1"},
		{name: "keyword inside literal", input: "SELECT * FROM audit WHERE op = 'DELETE'", want: "SELECT * FROM audit WHERE op = 'DELETE'"},
		{name: "update", input: "UPDATE orders SET status = 'PAID'", wantErr: true},
		{name: "delete", input: "DELETE FROM orders", wantErr: true},
		{name: "writable cte", input: "WITH gone AS (DELETE FROM orders RETURNING *) SELECT * FROM gone", wantErr: true},
		{name: "drop keyword", input: "SELECT 1 WHERE 1 = 1 OR DROP", wantErr: true},
		{name: "empty", input: "  ", wantErr: true},
		{name: "only semicolon", input: ";", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateReadOnly(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrUnsafeQuery)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateReadOnly_MultipleStatements(t *testing.T) {
	inputs := []string{
		"SELECT 1; SELECT 2",
		"SELECT 1;SELECT 2;",
		"SELECT 1;;",
		"SELECT 'a;b'; SELECT 1",
		"SELECT * FROM users WHERE 1=1; DELETE FROM users",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ValidateReadOnly(input)
			assert.ErrorIs(t, err, apperrors.ErrUnsafeQuery)
			assert.ErrorIs(t, err, ErrMultipleStatements)
		})
	}
}

func TestBlankStringLiterals(t *testing.T) {
	assert.Equal(t, "SELECT '   '", blankStringLiterals("SELECT 'a;b'"))
	assert.Equal(t, `SELECT "   " FROM t`, blankStringLiterals(`SELECT "a;b" FROM t`))
	assert.Equal(t, "WHERE op = '      ' AND x = 1", blankStringLiterals("WHERE op = 'DELETE' AND x = 1"))
}

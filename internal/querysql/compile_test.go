package querysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/queryir"
)

func TestCompile_NoFilter(t *testing.T) {
	sql, params, err := Compile(queryir.Query{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT schema_iri, body FROM resources ORDER BY schema_iri COLLATE BINARY ASC, iri COLLATE BINARY ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_Limit(t *testing.T) {
	sql, params, err := Compile(queryir.Query{Limit: 3})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, " LIMIT ?"), sql)
	assert.Equal(t, []any{3}, params)
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		pred   queryir.Predicate
		where  string
		params []any
	}{
		{
			name:   "string",
			pred:   queryir.Equals{Field: "pimTechnicalLabel", Value: ir.String("person")},
			where:  "(json_type(body, ?) = 'text' AND json_extract(body, ?) = ?)",
			params: []any{`$."pimTechnicalLabel"`, `$."pimTechnicalLabel"`, "person"},
		},
		{
			name:   "integer",
			pred:   queryir.Equals{Field: "pimCardinalityMin", Value: ir.Int(2)},
			where:  "(json_type(body, ?) = 'integer' AND json_extract(body, ?) = ?)",
			params: []any{`$."pimCardinalityMin"`, `$."pimCardinalityMin"`, int64(2)},
		},
		{
			name:   "true",
			pred:   queryir.Equals{Field: "pimIsOriented", Value: ir.Bool(true)},
			where:  "json_type(body, ?) = 'true'",
			params: []any{`$."pimIsOriented"`},
		},
		{
			name:   "false",
			pred:   queryir.Equals{Field: "pimIsOriented", Value: ir.Bool(false)},
			where:  "json_type(body, ?) = 'false'",
			params: []any{`$."pimIsOriented"`},
		},
		{
			name:   "null",
			pred:   queryir.Equals{Field: "pimHumanLabel", Value: ir.Null{}},
			where:  "json_extract(body, ?) IS NULL",
			params: []any{`$."pimHumanLabel"`},
		},
		{
			name:   "iri",
			pred:   queryir.Equals{Field: queryir.FieldIRI, Value: ir.String("https://example.com/a")},
			where:  "iri = ?",
			params: []any{"https://example.com/a"},
		},
		{
			name:   "schema",
			pred:   queryir.InSchema{IRI: "https://example.com/m/schema/1"},
			where:  "schema_iri = ?",
			params: []any{"https://example.com/m/schema/1"},
		},
		{
			name:   "empty and",
			pred:   queryir.And{},
			where:  "1 = 1",
			params: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := Compile(queryir.Query{Filter: tt.pred})
			require.NoError(t, err)
			assert.Contains(t, sql, " WHERE "+tt.where+" ORDER BY ")
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompile_TypeAndContainsUseJSONEach(t *testing.T) {
	sql, params, err := Compile(queryir.Query{Filter: queryir.And{Predicates: []queryir.Predicate{
		queryir.HasType{Type: ir.TypePsmClass},
		queryir.Contains{Field: "dataPsmParts", Value: "https://example.com/s/attribute/5"},
	}}})
	require.NoError(t, err)

	assert.Contains(t, sql, "json_each(resources.body, ?)")
	assert.NotContains(t, sql, "https://", "values are never interpolated")
	assert.Equal(t, []any{
		"$.types", "$.types", ir.TypePsmClass,
		`$."dataPsmParts"`, `$."dataPsmParts"`, "https://example.com/s/attribute/5",
	}, params)
}

func TestCompile_RejectsInvalidQuery(t *testing.T) {
	_, _, err := Compile(queryir.Query{Filter: queryir.Equals{Field: "x'; DROP TABLE resources; --", Value: ir.String("v")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, queryir.ErrInvalidQuery)
}
